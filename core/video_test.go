package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{name: "zero", want: "0s"},
		{name: "negative", d: -time.Minute, want: "0s"},
		{name: "seconds", d: 42 * time.Second, want: "42s"},
		{name: "minutes", d: 3*time.Minute + 7*time.Second, want: "3m 7s"},
		{name: "hours", d: time.Hour + 2*time.Minute + 3*time.Second, want: "1h 2m 3s"},
		{name: "hours no minutes", d: 2*time.Hour + 5*time.Second, want: "2h 0m 5s"},
		{name: "rounds", d: 59*time.Second + 600*time.Millisecond, want: "1m 0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.d))
		})
	}
}
