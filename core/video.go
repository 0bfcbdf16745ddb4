package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrUnsupportedVideoURL = NewValidationError(
		errors.New("invalid video url, provide a valid YouTube or Google Drive url"),
		FieldError{Field: "videoUrl", Error: "invalid video url, provide a valid YouTube or Google Drive url"},
	)
	ErrVideoNotFound = NewError(KindNotFound, "video not found")
)

// VideoDurationLookup is any service that can tell how long a hosted video is.
type VideoDurationLookup interface {
	Duration(ctx context.Context, videoURL string) (time.Duration, error)
}

// FormatDuration renders d as "1h 2m 3s", dropping leading zero units.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d.Round(time.Second) / time.Second)
	h, m, s := secs/3600, (secs%3600)/60, secs%60

	parts := make([]string, 0, 3)
	if h > 0 {
		parts = append(parts, fmt.Sprintf("%dh", h))
	}
	if h > 0 || m > 0 {
		parts = append(parts, fmt.Sprintf("%dm", m))
	}
	parts = append(parts, fmt.Sprintf("%ds", s))
	return strings.Join(parts, " ")
}
