//nolint:revive // types is a standard Go package name pattern
package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Status
		wantErr bool
	}{
		{name: "lowercase", input: "interview", want: StatusInterview},
		{name: "mixed case with spaces", input: "  Rejected ", want: StatusRejected},
		{name: "dash form", input: "manual-sort", want: StatusManualSort},
		{name: "none clears", input: "none", want: ""},
		{name: "empty clears", input: "", want: ""},
		{name: "archive", input: "archive", want: StatusArchive},
		{name: "unknown", input: "hired", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatus_Helpers(t *testing.T) {
	assert.True(t, StatusIncoming.IsDefault())
	assert.True(t, Status("").IsDefault())
	assert.False(t, StatusApplied.IsDefault())

	assert.Equal(t, "Manual Sort", StatusManualSort.Title())
	assert.Equal(t, "weird", Status("weird").Title())
	assert.False(t, Status("weird").Valid())

	assert.Nil(t, StatusPtr(""))
	p := StatusPtr(StatusInterview)
	require.NotNil(t, p)
	assert.Equal(t, StatusInterview, *p)

	assert.Len(t, StatusOrder, 6)
	assert.Equal(t, StatusIncoming, StatusOrder[0])
}

func TestSyncSummary_Seen(t *testing.T) {
	s := SyncSummary{Created: 2, Updated: 1, Unchanged: 4, Removed: 3}
	assert.Equal(t, 7, s.Seen())
}
