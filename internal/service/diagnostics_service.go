package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/senseops/diagd/internal/ai"
	"github.com/senseops/diagd/internal/model"
	appErr "github.com/senseops/diagd/internal/pkg/errors"
	"github.com/senseops/diagd/internal/repo"
)

const (
	// The model may reply with this marker followed by a JSON object to
	// request readings from another time window.
	moreDataMarker = "REQUEST_MORE_DATA:"

	maxDiagnosisIterations = 5
	diagnosisReadingLimit  = 50
	maxFollowUpLimit       = 500
)

const diagnosisPrompt = `You are a reliability analyst for industrial sensor installations.
Analyze the readings below for sensor %s and write a diagnostic report:
likely condition of the equipment, anomalies in the data, and recommended
maintenance actions.

Health evaluation of the latest reading:
%s

Readings (most recent first):
%s

If you need readings from a different time window before concluding, reply
with exactly one line:
REQUEST_MORE_DATA: {"start_date": "<RFC3339>", "end_date": "<RFC3339>", "limit": <n>}

Otherwise reply with the report as plain text.`

// DiagnosticsService runs an iterative diagnostic conversation: the model
// can request readings from additional time windows before committing to
// a report.
type DiagnosticsService struct {
	sensors *repo.SensorRepo
	health  *HealthService
	answers *AnswerService
}

func NewDiagnosticsService(sensors *repo.SensorRepo, health *HealthService, answers *AnswerService) *DiagnosticsService {
	return &DiagnosticsService{sensors: sensors, health: health, answers: answers}
}

type moreDataRequest struct {
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Limit     int        `json:"limit"`
}

// Diagnose collects recent readings and the health evaluation for the
// sensor and asks the model for a report, serving follow-up data requests
// for at most maxDiagnosisIterations rounds.
func (s *DiagnosticsService) Diagnose(ctx context.Context, sensorID, providerName, modelName string) (*model.Diagnosis, error) {
	sensorID = strings.TrimSpace(sensorID)
	if sensorID == "" {
		return nil, fmt.Errorf("%w: sensor_id is required", appErr.ErrInvalid)
	}
	provider, chatModel, err := s.answers.resolveModel(providerName, modelName)
	if err != nil {
		return nil, err
	}

	readings, err := s.sensors.Search(ctx, repo.SensorFilter{
		SensorID:  sensorID,
		Limit:     diagnosisReadingLimit,
		OrderBy:   "sampled_at",
		OrderDesc: true,
	})
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, fmt.Errorf("%w: no readings for sensor %s", appErr.ErrNotFound, sensorID)
	}
	health, err := s.health.CheckSensor(ctx, sensorID)
	if err != nil {
		return nil, err
	}
	healthJSON := marshalIndent(health)

	seen := make(map[string]struct{}, len(readings))
	for _, r := range readings {
		seen[r.ID] = struct{}{}
	}

	for iteration := 1; iteration <= maxDiagnosisIterations; iteration++ {
		prompt := fmt.Sprintf(diagnosisPrompt, sensorID, healthJSON, marshalIndent(readings))
		reply, err := provider.Generate(ctx, chatModel, prompt)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ai.ErrUnavailable, err)
		}

		request, wantsMore := parseMoreDataRequest(reply)
		if !wantsMore || iteration == maxDiagnosisIterations {
			return &model.Diagnosis{
				SensorID:         sensorID,
				Report:           strings.TrimSpace(reply),
				Iterations:       iteration,
				ReadingsAnalyzed: len(readings),
				Model:            chatModel,
				Provider:         provider.Name(),
			}, nil
		}

		logutil.GetLogger(ctx).Info("model requested more readings",
			zap.String("sensor_id", sensorID),
			zap.Int("iteration", iteration),
			zap.Any("request", request),
		)
		more, err := s.fetchWindow(ctx, sensorID, request)
		if err != nil {
			logutil.GetLogger(ctx).Warn("follow-up fetch failed", zap.Error(err))
			continue
		}
		for _, r := range more {
			if _, ok := seen[r.ID]; ok {
				continue
			}
			seen[r.ID] = struct{}{}
			readings = append(readings, r)
		}
	}
	// Unreachable, the loop always returns on the last iteration.
	return nil, fmt.Errorf("%w: diagnosis did not converge", appErr.ErrInternal)
}

func (s *DiagnosticsService) fetchWindow(ctx context.Context, sensorID string, request moreDataRequest) ([]model.SensorReading, error) {
	limit := request.Limit
	if limit <= 0 || limit > maxFollowUpLimit {
		limit = diagnosisReadingLimit
	}
	return s.sensors.Search(ctx, repo.SensorFilter{
		SensorID:  sensorID,
		StartDate: request.StartDate,
		EndDate:   request.EndDate,
		Limit:     limit,
		OrderBy:   "sampled_at",
		OrderDesc: true,
	})
}

// parseMoreDataRequest detects the follow-up marker. A marker with a
// malformed payload still counts as a request so the loop can re-prompt
// with unchanged data instead of returning the marker line as a report.
func parseMoreDataRequest(reply string) (moreDataRequest, bool) {
	var request moreDataRequest
	trimmed := stripCodeFence(strings.TrimSpace(reply))
	idx := strings.Index(trimmed, moreDataMarker)
	if idx < 0 {
		return request, false
	}
	payload := strings.TrimSpace(trimmed[idx+len(moreDataMarker):])
	if nl := strings.Index(payload, "\n"); nl >= 0 {
		payload = strings.TrimSpace(payload[:nl])
	}
	if err := json.Unmarshal([]byte(payload), &request); err != nil {
		return moreDataRequest{}, true
	}
	return request, true
}

func marshalIndent(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
