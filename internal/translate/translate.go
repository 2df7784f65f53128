// Package translate translates job descriptions through an ordered list of
// providers. A provider that reports rate limiting is skipped for the rest of
// the run.
package translate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
)

// DefaultTargetLanguage is the language descriptions are translated into.
const DefaultTargetLanguage = "ru"

// Provider translates one chunk of text.
type Provider interface {
	Name() string
	Translate(ctx context.Context, text, target string) (string, error)
}

// Translator translates a whole description.
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// RateLimitError marks a provider as exhausted for the current run.
type RateLimitError struct {
	Provider string
	Cause    error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited: %v", e.Provider, e.Cause)
}

func (e *RateLimitError) Unwrap() error {
	return e.Cause
}

// ProviderError is a non rate-limit provider failure.
type ProviderError struct {
	Provider string
	Message  string
	Cause    error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// ErrNoProviders is returned when every provider is blocked or none is configured.
var ErrNoProviders = errors.New("no translation provider available")

// Chain tries providers in order for every chunk and caches results.
type Chain struct {
	providers []Provider
	maxChunk  int
	verbose   bool

	mu      sync.Mutex
	blocked map[string]bool
	cache   map[string]string
}

// NewChain creates a Chain over providers in preference order.
func NewChain(providers ...Provider) *Chain {
	return &Chain{
		providers: providers,
		maxChunk:  MaxChunkLength,
		blocked:   make(map[string]bool),
		cache:     make(map[string]string),
	}
}

// WithVerbose enables per-provider failure logging.
func (c *Chain) WithVerbose(verbose bool) *Chain {
	c.verbose = verbose
	return c
}

// Providers returns the provider names in order.
func (c *Chain) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// Reset clears blocked providers. Called at the start of each run.
func (c *Chain) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocked = make(map[string]bool)
}

// Blocked reports whether provider has been short-circuited.
func (c *Chain) Blocked(provider string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocked[provider]
}

// Translate translates text into target. Text already in the target language
// is returned unchanged. On failure the returned text is the best available
// result, with untranslated chunks kept as-is, and the last error is returned.
func (c *Chain) Translate(ctx context.Context, text, target string) (string, error) {
	if target == "" {
		target = DefaultTargetLanguage
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || InTargetLanguage(trimmed, target) {
		return text, nil
	}

	var (
		parts   []string
		lastErr error
		failed  int
	)
	chunks := Chunks(trimmed, c.maxChunk)
	for _, chunk := range chunks {
		translated, err := c.translateChunk(ctx, chunk, target)
		if err != nil {
			lastErr = err
			failed++
			translated = chunk
		}
		parts = append(parts, translated)
		if ctx.Err() != nil {
			return text, ctx.Err()
		}
	}

	result := strings.TrimSpace(strings.Join(parts, "\n"))
	if result == "" {
		result = text
	}
	if failed == len(chunks) {
		return text, lastErr
	}
	return result, lastErr
}

func (c *Chain) translateChunk(ctx context.Context, chunk, target string) (string, error) {
	if isBareURL(chunk) {
		return chunk, nil
	}

	cacheKey := target + "\x00" + chunk
	c.mu.Lock()
	if cached, ok := c.cache[cacheKey]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	var lastErr error
	for _, p := range c.providers {
		if c.Blocked(p.Name()) {
			continue
		}
		translated, err := p.Translate(ctx, chunk, target)
		if err == nil && strings.TrimSpace(translated) != "" {
			c.mu.Lock()
			c.cache[cacheKey] = translated
			c.mu.Unlock()
			return translated, nil
		}
		if err == nil {
			err = &ProviderError{Provider: p.Name(), Message: "empty translation"}
		}
		lastErr = err

		var rl *RateLimitError
		if errors.As(err, &rl) {
			c.mu.Lock()
			c.blocked[p.Name()] = true
			c.mu.Unlock()
			log.Printf("[TRANSLATE] %s rate limited, disabled for this run", p.Name())
		} else if c.verbose {
			log.Printf("[TRANSLATE] %s failed: %v", p.Name(), err)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	if lastErr == nil {
		lastErr = ErrNoProviders
	}
	return "", lastErr
}

func isBareURL(chunk string) bool {
	lower := strings.ToLower(chunk)
	return len(strings.Fields(chunk)) == 1 &&
		(strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://"))
}
