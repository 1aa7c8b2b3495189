package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/battle-arena/internal/gateway"
)

// FakeGateway records prompts and returns canned results
type FakeGateway struct {
	mu sync.Mutex

	ImagePrompts []string
	TextPrompts  []string
	TextParams   []gateway.TextParams

	// ImageErr and TextErr, when set, are returned instead of a result
	ImageErr error
	TextErr  error
}

// GenerateImage returns https://gen.example.com/<n>.png for the nth call
func (g *FakeGateway) GenerateImage(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ImageErr != nil {
		return "", g.ImageErr
	}
	g.ImagePrompts = append(g.ImagePrompts, prompt)
	return fmt.Sprintf("https://gen.example.com/%d.png", len(g.ImagePrompts)), nil
}

// GenerateText returns "story <n>" for the nth call
func (g *FakeGateway) GenerateText(_ context.Context, prompt string, params gateway.TextParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.TextErr != nil {
		return "", g.TextErr
	}
	g.TextPrompts = append(g.TextPrompts, prompt)
	g.TextParams = append(g.TextParams, params)
	return fmt.Sprintf("story %d", len(g.TextPrompts)), nil
}

// ImageCalls returns how many images were generated
func (g *FakeGateway) ImageCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.ImagePrompts)
}

// FakeProber answers probes from a status table; unknown URLs get Default
type FakeProber struct {
	mu       sync.Mutex
	Statuses map[string]int
	Default  int
	Err      error
	Probed   []string
}

// NewFakeProber returns a prober that reports every link as healthy
func NewFakeProber() *FakeProber {
	return &FakeProber{Statuses: map[string]int{}, Default: 200}
}

// Set fixes the status returned for url
func (p *FakeProber) Set(url string, status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Statuses[url] = status
}

// Probe implements service.LinkProber
func (p *FakeProber) Probe(_ context.Context, url string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Probed = append(p.Probed, url)
	if p.Err != nil {
		return 0, p.Err
	}
	if status, ok := p.Statuses[url]; ok {
		return status, nil
	}
	return p.Default, nil
}
