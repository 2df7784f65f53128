package translate

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/jonathan/jobmail-sync/internal/llm"
)

// Provider names accepted in configuration.
const (
	ProviderGoogleUnofficial = "google_unofficial"
	ProviderGoogleAPI        = "google_api"
	ProviderGemini           = "gemini"
	ProviderMyMemory         = "mymemory"
)

// defaultOrder is the fallback order after the preferred provider.
var defaultOrder = []string{ProviderGoogleUnofficial, ProviderGoogleAPI, ProviderGemini, ProviderMyMemory}

// Options selects the providers of a Chain.
type Options struct {
	Preferred    string
	GoogleAPIKey string
	LLM          llm.Client // enables the gemini provider
	HTTPClient   *http.Client
	Verbose      bool
}

// New builds a Chain with the preferred provider first. Providers lacking
// credentials are left out.
func New(ctx context.Context, opts Options) (*Chain, error) {
	order := []string{}
	if opts.Preferred != "" {
		if !knownProvider(opts.Preferred) {
			return nil, fmt.Errorf("unknown translation provider %q", opts.Preferred)
		}
		order = append(order, opts.Preferred)
	}
	for _, name := range defaultOrder {
		if name != opts.Preferred {
			order = append(order, name)
		}
	}

	var providers []Provider
	for _, name := range order {
		switch name {
		case ProviderGoogleUnofficial:
			providers = append(providers, NewGoogleUnofficial(opts.HTTPClient))
		case ProviderGoogleAPI:
			if opts.GoogleAPIKey == "" {
				continue
			}
			p, err := NewGoogleAPI(ctx, opts.GoogleAPIKey)
			if err != nil {
				log.Printf("[TRANSLATE] google_api disabled: %v", err)
				continue
			}
			providers = append(providers, p)
		case ProviderGemini:
			if opts.LLM == nil {
				continue
			}
			providers = append(providers, NewGemini(opts.LLM))
		case ProviderMyMemory:
			providers = append(providers, NewMyMemory(opts.HTTPClient))
		}
	}
	return NewChain(providers...).WithVerbose(opts.Verbose), nil
}

func knownProvider(name string) bool {
	for _, n := range defaultOrder {
		if n == name {
			return true
		}
	}
	return false
}
