package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text",
			input:    "  Мы ищем инженера  ",
			expected: "Мы ищем инженера",
		},
		{
			name:     "generic code block",
			input:    "```\nМы ищем инженера\n```",
			expected: "Мы ищем инженера",
		},
		{
			name:     "code block with language",
			input:    "```text\nМы ищем инженера\n```",
			expected: "Мы ищем инженера",
		},
		{
			name:     "translation label",
			input:    "Translation: Мы ищем инженера",
			expected: "Мы ищем инженера",
		},
		{
			name:     "russian label inside block",
			input:    "```\nПеревод: Привет\n```",
			expected: "Привет",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CleanResponse(tt.input)
			if result != tt.expected {
				t.Errorf("CleanResponse() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"googleapi 429", fmt.Errorf("wrapped: %w", &googleapi.Error{Code: 429}), true},
		{"googleapi 500", &googleapi.Error{Code: 500}, false},
		{"grpc resource exhausted", errors.New("rpc error: code = ResourceExhausted desc = quota"), true},
		{"other", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRateLimited(tt.err); got != tt.expected {
				t.Errorf("IsRateLimited() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestResponseText(t *testing.T) {
	text := func(parts ...genai.Part) *genai.GenerateContentResponse {
		return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: parts}, FinishReason: genai.FinishReasonStop},
		}}
	}

	tests := []struct {
		name        string
		resp        *genai.GenerateContentResponse
		want        string
		wantBlocked bool
		wantErr     bool
	}{
		{name: "joins text parts", resp: text(genai.Text("Мы ищем "), genai.Text("инженера")), want: "Мы ищем инженера"},
		{name: "nil response", resp: nil, wantErr: true},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, wantErr: true},
		{name: "no text parts", resp: text(genai.Blob{MIMEType: "image/png"}), wantErr: true},
		{
			name: "prompt blocked",
			resp: &genai.GenerateContentResponse{
				PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety},
			},
			wantBlocked: true,
		},
		{
			name: "safety stop",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{genai.Text("partial")}}, FinishReason: genai.FinishReasonSafety},
			}},
			wantBlocked: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := responseText(tt.resp)
			switch {
			case tt.wantBlocked:
				require.ErrorIs(t, err, ErrBlocked)
			case tt.wantErr:
				require.Error(t, err)
				assert.NotErrorIs(t, err, ErrBlocked)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
