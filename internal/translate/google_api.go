package translate

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	translatev2 "google.golang.org/api/translate/v2"
)

// GoogleAPI uses the Cloud Translation v2 API with an API key.
type GoogleAPI struct {
	svc *translatev2.Service
}

// NewGoogleAPI creates the Cloud Translation provider. Extra options are
// appended after the API key (tests pass option.WithEndpoint).
func NewGoogleAPI(ctx context.Context, apiKey string, opts ...option.ClientOption) (*GoogleAPI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google translate API key is required")
	}
	svc, err := translatev2.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create translate service: %w", err)
	}
	return &GoogleAPI{svc: svc}, nil
}

func (g *GoogleAPI) Name() string { return "google_api" }

func (g *GoogleAPI) Translate(ctx context.Context, text, target string) (string, error) {
	resp, err := g.svc.Translations.List([]string{text}, target).Format("text").Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && isQuotaError(apiErr) {
			return "", &RateLimitError{Provider: g.Name(), Cause: err}
		}
		return "", &ProviderError{Provider: g.Name(), Message: "request failed", Cause: err}
	}
	if len(resp.Translations) == 0 {
		return "", &ProviderError{Provider: g.Name(), Message: "no translations in response"}
	}
	return strings.TrimSpace(html.UnescapeString(resp.Translations[0].TranslatedText)), nil
}

func isQuotaError(err *googleapi.Error) bool {
	if err.Code == http.StatusTooManyRequests {
		return true
	}
	return err.Code == http.StatusForbidden && strings.Contains(strings.ToLower(err.Message), "limit")
}
