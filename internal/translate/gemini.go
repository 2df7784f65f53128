package translate

import (
	"context"
	"fmt"

	"github.com/jonathan/jobmail-sync/internal/llm"
)

// Gemini translates through an LLM client.
type Gemini struct {
	client llm.Client
	tier   llm.ModelTier
}

// NewGemini wraps client. The lite tier is used for every chunk.
func NewGemini(client llm.Client) *Gemini {
	return &Gemini{client: client, tier: llm.TierLite}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Translate(ctx context.Context, text, target string) (string, error) {
	prompt := fmt.Sprintf(
		"Translate the following job description text to %s. Keep line breaks, product names and technology names as they are. Return only the translation.\n\n%s",
		LanguageName(target), text,
	)
	out, err := g.client.GenerateContent(ctx, prompt, g.tier)
	if err != nil {
		if llm.IsRateLimited(err) {
			return "", &RateLimitError{Provider: g.Name(), Cause: err}
		}
		return "", &ProviderError{Provider: g.Name(), Message: "generation failed", Cause: err}
	}
	return llm.CleanResponse(out), nil
}
