package ai

import (
	"context"
	"time"
)

// WrapTimeout bounds every provider call with d. Zero or negative d
// returns p unchanged.
func WrapTimeout(p IProvider, d time.Duration) IProvider {
	if d <= 0 {
		return p
	}
	return &timeoutProvider{inner: p, timeout: d}
}

type timeoutProvider struct {
	inner   IProvider
	timeout time.Duration
}

func (t *timeoutProvider) Name() string {
	return t.inner.Name()
}

func (t *timeoutProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, model, prompt)
}

func (t *timeoutProvider) Embed(ctx context.Context, model string, texts []string, taskType string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Embed(ctx, model, texts, taskType)
}
