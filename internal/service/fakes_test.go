package service

import (
	"context"
	"sync"
)

// fakeEmbedder maps every text to a fixed vector and counts provider
// round trips.
type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	texts []string
	vec   []float32
	err   error
}

func newFakeEmbedder(vec []float32) *fakeEmbedder {
	return &fakeEmbedder{vec: vec}
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		f.texts = append(f.texts, text)
		out[i] = append([]float32(nil), f.vec...)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedOne(ctx context.Context, text string, taskType string) ([]float32, error) {
	vectors, err := f.Embed(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *fakeEmbedder) ModelName() string {
	return "fake-embed"
}

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeProvider replays scripted replies in order, repeating the last one.
type fakeProvider struct {
	mu      sync.Mutex
	name    string
	replies []string
	prompts []string
	err     error
}

func (f *fakeProvider) Name() string {
	return f.name
}

func (f *fakeProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.prompts = append(f.prompts, prompt)
	idx := len(f.prompts) - 1
	if idx >= len(f.replies) {
		idx = len(f.replies) - 1
	}
	return f.replies[idx], nil
}

func (f *fakeProvider) Embed(ctx context.Context, model string, texts []string, taskType string) ([][]float32, error) {
	return nil, nil
}
