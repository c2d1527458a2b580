package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseExpenseDate(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	withTime := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want *time.Time
	}{
		{"2024-03-01", &day},
		{" 2024-03-01 ", &day},
		{"2024-03-01T14:30:00Z", &withTime},
		{"2024-03-01T16:30:00+02:00", &withTime},
		{"2024-03-01 14:30:00", &withTime},
		{"03/01/2024", &day},
		{"3/1/2024", &day},
		{"Mar 1, 2024", &day},
		{"March 1, 2024", &day},
		{"", nil},
		{"yesterday", nil},
		{"2024-13-45", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseExpenseDate(tt.in)
			if tt.want == nil {
				require.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			require.True(t, tt.want.Equal(*got), "got %s", got)
			require.Equal(t, time.UTC, got.Location())
		})
	}
}
