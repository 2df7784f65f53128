package translate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name  string
	fn    func(text string) (string, error)
	mu    sync.Mutex
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Translate(_ context.Context, text, _ string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(text)
}

func (f *fakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func upper(text string) (string, error) { return "RU:" + text, nil }

func TestChain_FallsBackOnFailure(t *testing.T) {
	failing := &fakeProvider{name: "first", fn: func(string) (string, error) { return "", errors.New("boom") }}
	working := &fakeProvider{name: "second", fn: upper}
	chain := NewChain(failing, working)

	out, err := chain.Translate(context.Background(), "About the job", "ru")
	require.NoError(t, err)
	assert.Equal(t, "RU:About the job", out)
	assert.False(t, chain.Blocked("first"))
}

func TestChain_RateLimitBlocksProviderForRun(t *testing.T) {
	limited := &fakeProvider{name: "limited", fn: func(string) (string, error) {
		return "", &RateLimitError{Provider: "limited", Cause: errors.New("429")}
	}}
	working := &fakeProvider{name: "backup", fn: upper}
	chain := NewChain(limited, working)

	_, err := chain.Translate(context.Background(), "first text", "ru")
	require.NoError(t, err)
	_, err = chain.Translate(context.Background(), "second text", "ru")
	require.NoError(t, err)

	assert.Equal(t, 1, limited.Calls())
	assert.True(t, chain.Blocked("limited"))

	chain.Reset()
	assert.False(t, chain.Blocked("limited"))
	_, err = chain.Translate(context.Background(), "third text", "ru")
	require.NoError(t, err)
	assert.Equal(t, 2, limited.Calls())
}

func TestChain_SkipsRussianText(t *testing.T) {
	p := &fakeProvider{name: "p", fn: upper}
	chain := NewChain(p)

	out, err := chain.Translate(context.Background(), "Описание вакансии", "ru")
	require.NoError(t, err)
	assert.Equal(t, "Описание вакансии", out)
	assert.Equal(t, 0, p.Calls())
}

func TestChain_CachesChunks(t *testing.T) {
	p := &fakeProvider{name: "p", fn: upper}
	chain := NewChain(p)

	for i := 0; i < 3; i++ {
		_, err := chain.Translate(context.Background(), "Same text", "ru")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, p.Calls())
}

func TestChain_AllProvidersFailKeepsOriginal(t *testing.T) {
	boom := errors.New("down")
	p := &fakeProvider{name: "p", fn: func(string) (string, error) { return "", boom }}
	chain := NewChain(p)

	out, err := chain.Translate(context.Background(), "Original description", "ru")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "Original description", out)
}

func TestChain_PartialFailureKeepsTranslatedChunks(t *testing.T) {
	boom := errors.New("down")
	p := &fakeProvider{name: "p", fn: func(text string) (string, error) {
		if strings.HasPrefix(text, "bad") {
			return "", boom
		}
		return upper(text)
	}}
	chain := NewChain(p)
	chain.maxChunk = 10

	out, err := chain.Translate(context.Background(), "good line\nbad line", "ru")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "RU:good line\nbad line", out)
}

func TestChain_NoProviders(t *testing.T) {
	chain := NewChain()
	out, err := chain.Translate(context.Background(), "text", "ru")
	assert.ErrorIs(t, err, ErrNoProviders)
	assert.Equal(t, "text", out)
}

func TestChain_BareURLUntouched(t *testing.T) {
	p := &fakeProvider{name: "p", fn: upper}
	chain := NewChain(p)

	out, err := chain.Translate(context.Background(), "https://example.com/jobs/1", "ru")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/jobs/1", out)
	assert.Equal(t, 0, p.Calls())
}
