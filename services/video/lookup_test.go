package videosvc

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehub/lms/core"
)

func Test_parseISODuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "PT3M33S", want: 3*time.Minute + 33*time.Second},
		{in: "PT1H2M3S", want: time.Hour + 2*time.Minute + 3*time.Second},
		{in: "PT2H", want: 2 * time.Hour},
		{in: "PT45S", want: 45 * time.Second},
		{in: "PT0S", want: 0},
		{in: "PT", wantErr: true},
		{in: "P1DT2H", want: 26 * time.Hour},
		{in: "P2D", want: 48 * time.Hour},
		{in: "P1DT", wantErr: true},
		{in: "P", wantErr: true},
		{in: "3 minutes", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseISODuration(tc.in)
			if tc.wantErr {
				assert.Equal(t, errInvalidISODuration, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLookup_Duration(t *testing.T) {
	var gotYoutube, gotDrive []string
	l := &Lookup{
		youtube: func(_ context.Context, id string) (string, error) {
			gotYoutube = append(gotYoutube, id)
			if id == "missingvid0" {
				return "", core.ErrVideoNotFound
			}
			return "PT10M5S", nil
		},
		drive: func(_ context.Context, id string) (time.Duration, error) {
			gotDrive = append(gotDrive, id)
			return 90500 * time.Millisecond, nil
		},
	}
	ctx := context.Background()

	tests := []struct {
		name    string
		url     string
		want    time.Duration
		wantErr error
	}{
		{name: "youtube watch", url: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42", want: 10*time.Minute + 5*time.Second},
		{name: "youtube short", url: "https://youtu.be/dQw4w9WgXcQ", want: 10*time.Minute + 5*time.Second},
		{name: "youtube embed", url: "https://m.youtube.com/embed/dQw4w9WgXcQ", want: 10*time.Minute + 5*time.Second},
		{name: "youtube missing", url: "https://youtu.be/missingvid0", wantErr: core.ErrVideoNotFound},
		{name: "drive", url: "https://drive.google.com/file/d/1AbC-d_E/view?usp=sharing", want: 90500 * time.Millisecond},
		{name: "vimeo", url: "https://vimeo.com/76979871", wantErr: core.ErrUnsupportedVideoURL},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := l.Duration(ctx, tc.url)
			if tc.wantErr != nil {
				assert.Equal(t, tc.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	assert.Equal(t, []string{"dQw4w9WgXcQ", "dQw4w9WgXcQ", "dQw4w9WgXcQ", "missingvid0"}, gotYoutube)
	assert.Equal(t, []string{"1AbC-d_E"}, gotDrive)
}
