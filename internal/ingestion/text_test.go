package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "line endings unified",
			input: "Line 1\r\nLine 2\rLine 3",
			want:  "Line 1\nLine 2\nLine 3",
		},
		{
			name:  "horizontal whitespace collapsed and lines trimmed",
			input: "  Hello \t  world  \n\t next   line ",
			want:  "Hello world\nnext line",
		},
		{
			name:  "blank line runs collapsed",
			input: "A\n\n\n\n\nB\n \n \n \nC",
			want:  "A\n\nB\n\nC",
		},
		{
			name:  "entities decoded",
			input: "Tom &amp; Jerry &lt;3&gt;",
			want:  "Tom & Jerry <3>",
		},
		{
			name:  "tags stripped",
			input: "<p>Your application was sent to <b>Acme</b></p><br>Thanks",
			want:  "Your application was sent to Acme\n\nThanks",
		},
		{
			name:  "style blocks removed",
			input: "<style>.a{color:red}</style>Body text",
			want:  "Body text",
		},
		{
			name:  "non-breaking spaces collapsed",
			input: "Tel&nbsp;&nbsp;Aviv",
			want:  "Tel Aviv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	input := "Test content   with   spaces\n\n\nMultiple   blank   lines"
	first := Normalize(input)
	assert.Equal(t, first, Normalize(input))
	assert.Equal(t, first, Normalize(first))
}
