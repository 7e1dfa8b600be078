package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable is returned when a provider has no usable credentials or
// cannot be reached.
var ErrUnavailable = errors.New("ai provider unavailable")

type IProvider interface {
	Name() string
	Generate(ctx context.Context, model string, prompt string) (string, error)
	// Embed embeds a batch of texts and returns one vector per input, in
	// input order.
	Embed(ctx context.Context, model string, texts []string, taskType string) ([][]float32, error)
}

type IEmbedder interface {
	Embed(ctx context.Context, texts []string, taskType string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string, taskType string) ([]float32, error)
	ModelName() string
}

type embedder struct {
	provider IProvider
	model    string
}

func NewEmbedder(p IProvider, model string) IEmbedder {
	return &embedder{provider: p, model: model}
}

func (e *embedder) Embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	cleaned := make([]string, len(texts))
	for i, t := range texts {
		cleaned[i] = SanitizeText(t)
	}
	return e.provider.Embed(ctx, e.model, cleaned, taskType)
}

func (e *embedder) EmbedOne(ctx context.Context, text string, taskType string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("provider returned no embedding")
	}
	return vectors[0], nil
}

func (e *embedder) ModelName() string {
	return e.model
}

// SanitizeText strips NUL bytes and surrounding whitespace. Embedding APIs
// reject NUL and some reject fully empty input, hence the single space.
func SanitizeText(text string) string {
	cleaned := strings.TrimSpace(strings.ReplaceAll(text, "\x00", ""))
	if cleaned == "" {
		return " "
	}
	return cleaned
}

type ProviderFactory func(args interface{}) (IProvider, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai provider name is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
