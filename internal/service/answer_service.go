package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/senseops/diagd/internal/ai"
	"github.com/senseops/diagd/internal/model"
	appErr "github.com/senseops/diagd/internal/pkg/errors"
)

const answerPrompt = `You are a technical assistant for industrial sensor equipment.
Answer the question using ONLY the context excerpts below. If the context
does not contain the answer, say so plainly.

Respond with a single JSON object and nothing else:
{"answer": "<your answer>", "references": "<comma separated document ids you relied on>"}

Context:
%s

Question: %s`

const noContextAnswer = "No relevant context was found in the indexed documentation for this question."

// Provider names accepted by the question and diagnostics endpoints.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// ModelOption is one entry of the model catalog exposed to clients.
type ModelOption struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Default  bool   `json:"default,omitempty"`
}

// AnswerService turns retrieval hits into a grounded answer via an LLM.
type AnswerService struct {
	retrieval *RetrievalService
	providers map[string]ai.IProvider
	catalog   []ModelOption
	topK      int
}

func NewAnswerService(retrieval *RetrievalService, providers map[string]ai.IProvider, catalog []ModelOption) *AnswerService {
	return &AnswerService{
		retrieval: retrieval,
		providers: providers,
		catalog:   catalog,
		topK:      DefaultTopK,
	}
}

// Models returns the catalog of usable chat models. Entries whose provider
// is not configured are filtered out.
func (s *AnswerService) Models() []ModelOption {
	out := make([]ModelOption, 0, len(s.catalog))
	for _, opt := range s.catalog {
		if _, ok := s.providers[opt.Provider]; !ok {
			continue
		}
		out = append(out, opt)
	}
	return out
}

// resolveModel maps a requested provider and model to a configured chat
// backend. The provider set is closed: anything outside it is invalid, a
// known but unconfigured provider is unavailable.
func (s *AnswerService) resolveModel(providerName, modelName string) (ai.IProvider, string, error) {
	providerName = strings.ToLower(strings.TrimSpace(providerName))
	if providerName == "" {
		providerName, modelName = s.defaultSelection(modelName)
		if providerName == "" {
			return nil, "", fmt.Errorf("%w: no chat model configured", ai.ErrUnavailable)
		}
	}
	switch providerName {
	case ProviderOpenAI, ProviderGemini:
	default:
		return nil, "", fmt.Errorf("%w: unknown provider %q", appErr.ErrInvalid, providerName)
	}
	provider, ok := s.providers[providerName]
	if !ok {
		return nil, "", fmt.Errorf("%w: provider %s is not configured", ai.ErrUnavailable, providerName)
	}
	if modelName == "" {
		modelName = s.defaultModelFor(providerName)
	}
	if modelName == "" {
		return nil, "", fmt.Errorf("%w: model is required for provider %s", appErr.ErrInvalid, providerName)
	}
	return provider, modelName, nil
}

func (s *AnswerService) defaultSelection(modelName string) (string, string) {
	options := s.Models()
	for _, opt := range options {
		if opt.Default {
			return opt.Provider, pickModel(modelName, opt.Model)
		}
	}
	if len(options) > 0 {
		return options[0].Provider, pickModel(modelName, options[0].Model)
	}
	return "", ""
}

func (s *AnswerService) defaultModelFor(providerName string) string {
	var fallback string
	for _, opt := range s.catalog {
		if opt.Provider != providerName {
			continue
		}
		if opt.Default {
			return opt.Model
		}
		if fallback == "" {
			fallback = opt.Model
		}
	}
	return fallback
}

func pickModel(requested, fallback string) string {
	if requested != "" {
		return requested
	}
	return fallback
}

// Answer retrieves context for the question, asks the selected model and
// parses its strict-JSON reply. allowedDocs scopes retrieval the same way
// as RetrievalService.Search.
func (s *AnswerService) Answer(ctx context.Context, question, providerName, modelName string, allowedDocs []string) (*model.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", appErr.ErrInvalid)
	}
	provider, chatModel, err := s.resolveModel(providerName, modelName)
	if err != nil {
		return nil, err
	}

	hits, err := s.retrieval.Search(ctx, question, s.topK, allowedDocs)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return &model.Answer{Answer: noContextAnswer}, nil
	}

	prompt := fmt.Sprintf(answerPrompt, formatContext(hits), question)
	reply, err := provider.Generate(ctx, chatModel, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrUnavailable, err)
	}

	answer := parseAnswer(reply)
	if answer.Fallback {
		logutil.GetLogger(ctx).Warn("model reply was not valid json", zap.String("model", chatModel))
	}
	answer.Citations = citations(hits)
	return answer, nil
}

func formatContext(hits []model.Hit) string {
	if len(hits) == 0 {
		return "(no matching documents)"
	}
	var sb strings.Builder
	for i, hit := range hits {
		fmt.Fprintf(&sb, "[%d] document=%s", i+1, hit.DocumentID)
		if hit.Page > 0 {
			fmt.Fprintf(&sb, " page=%d", hit.Page)
		}
		sb.WriteString("\n")
		sb.WriteString(strings.TrimSpace(hit.Snippet))
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String())
}

func citations(hits []model.Hit) []model.Citation {
	out := make([]model.Citation, 0, len(hits))
	for _, hit := range hits {
		out = append(out, model.Citation{
			DocumentID: hit.DocumentID,
			Page:       hit.Page,
			Score:      hit.Score,
			Snippet:    snippetPreview(hit.Snippet),
		})
	}
	return out
}

func snippetPreview(text string) string {
	const maxLen = 280
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}

// parseAnswer decodes the model reply. Replies wrapped in markdown code
// fences are unwrapped first; anything that still fails to decode is
// returned verbatim with Fallback set.
func parseAnswer(reply string) *model.Answer {
	text := stripCodeFence(strings.TrimSpace(reply))
	var parsed struct {
		Answer     string `json:"answer"`
		References string `json:"references"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil || parsed.Answer == "" {
		return &model.Answer{Answer: strings.TrimSpace(reply), Fallback: true}
	}
	return &model.Answer{Answer: parsed.Answer, References: parsed.References}
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
