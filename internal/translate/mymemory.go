package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MyMemoryURL is the public MyMemory endpoint.
const MyMemoryURL = "https://api.mymemory.translated.net/get"

// MyMemory is the last-resort free provider.
type MyMemory struct {
	BaseURL string
	Client  *http.Client
}

// NewMyMemory returns a provider with production defaults.
func NewMyMemory(client *http.Client) *MyMemory {
	if client == nil {
		client = &http.Client{Timeout: 12 * time.Second}
	}
	return &MyMemory{BaseURL: MyMemoryURL, Client: client}
}

func (m *MyMemory) Name() string { return "mymemory" }

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus  json.Number `json:"responseStatus"`
	ResponseDetails string      `json:"responseDetails"`
}

func (m *MyMemory) Translate(ctx context.Context, text, target string) (string, error) {
	query := url.Values{
		"q":        {text},
		"langpair": {GuessSourceLanguage(text) + "|" + target},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return "", &ProviderError{Provider: m.Name(), Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := m.Client.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: m.Name(), Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Provider: m.Name(), Message: "failed to read response", Cause: err}
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &RateLimitError{Provider: m.Name(), Cause: fmt.Errorf("HTTP status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{Provider: m.Name(), Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	var data myMemoryResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return "", &ProviderError{Provider: m.Name(), Message: "invalid JSON", Cause: err}
	}
	// Quota exhaustion is reported in the body with HTTP 200.
	if data.ResponseStatus.String() == "429" {
		return "", &RateLimitError{Provider: m.Name(), Cause: fmt.Errorf("%s", data.ResponseDetails)}
	}
	translated := strings.TrimSpace(html.UnescapeString(data.ResponseData.TranslatedText))
	if translated == "" {
		return "", &ProviderError{Provider: m.Name(), Message: "empty result"}
	}
	return translated, nil
}
