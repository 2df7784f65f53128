package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GoogleUnofficialURL is the keyless endpoint used by browser extensions.
const GoogleUnofficialURL = "https://translate.googleapis.com/translate_a/single"

// GoogleUnofficial calls the keyless Google endpoint.
type GoogleUnofficial struct {
	BaseURL  string
	Client   *http.Client
	Attempts int
	Backoff  time.Duration
}

// NewGoogleUnofficial returns a provider with production defaults.
func NewGoogleUnofficial(client *http.Client) *GoogleUnofficial {
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}
	return &GoogleUnofficial{
		BaseURL:  GoogleUnofficialURL,
		Client:   client,
		Attempts: 3,
		Backoff:  250 * time.Millisecond,
	}
}

func (g *GoogleUnofficial) Name() string { return "google_unofficial" }

func (g *GoogleUnofficial) Translate(ctx context.Context, text, target string) (string, error) {
	form := url.Values{
		"client": {"gtx"},
		"sl":     {"auto"},
		"tl":     {target},
		"dt":     {"t"},
		"q":      {text},
	}

	attempts := g.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(g.Backoff * time.Duration(attempt)):
			}
		}
		translated, err := g.post(ctx, form)
		if err == nil {
			return translated, nil
		}
		lastErr = err
		var rl *RateLimitError
		if errors.As(err, &rl) {
			break
		}
	}
	return "", lastErr
}

func (g *GoogleUnofficial) post(ctx context.Context, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &ProviderError{Provider: g.Name(), Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: g.Name(), Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Provider: g.Name(), Message: "failed to read response", Cause: err}
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &RateLimitError{Provider: g.Name(), Cause: fmt.Errorf("HTTP status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{Provider: g.Name(), Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}
	return parseUnofficialResponse(body)
}

// parseUnofficialResponse joins the translated segments of a
// [[["translated","source",...],...],...] payload.
func parseUnofficialResponse(body []byte) (string, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil || len(payload) == 0 {
		return "", &ProviderError{Provider: "google_unofficial", Message: "unexpected response", Cause: err}
	}
	var segments [][]any
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", &ProviderError{Provider: "google_unofficial", Message: "unexpected segments", Cause: err}
	}
	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			b.WriteString(s)
		}
	}
	return strings.TrimSpace(b.String()), nil
}
