package videosvc

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/coursehub/lms/core"
)

var (
	youtubeURL  = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:m\.)?(?:youtube\.com|youtu\.be)/(?:watch\?v=|embed/|v/|)([^&?\n]{11})`)
	driveURL    = regexp.MustCompile(`drive\.google\.com/file/d/([a-zA-Z0-9_-]+)`)
	isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

	errInvalidISODuration = errors.New("invalid ISO 8601 duration")
)

type (
	// youtubeAPI returns the ISO 8601 duration of a YouTube video.
	youtubeAPI func(ctx context.Context, videoID string) (string, error)
	// driveAPI returns the duration of a Google Drive video file.
	driveAPI func(ctx context.Context, fileID string) (time.Duration, error)
)

// Lookup finds the duration of YouTube and Google Drive videos.
type Lookup struct {
	youtube youtubeAPI
	drive   driveAPI
}

var _ core.VideoDurationLookup = (*Lookup)(nil)

func NewLookup(ctx context.Context, conf *core.Config) (*Lookup, error) {
	yt, err := youtube.NewService(ctx, option.WithAPIKey(conf.Video.YoutubeAPIKey))
	if err != nil {
		return nil, errors.Wrap(err, "creating youtube client")
	}

	driveOpt := option.WithAPIKey(conf.Video.YoutubeAPIKey)
	if conf.Video.GoogleCredentialsFile != "" {
		driveOpt = option.WithCredentialsFile(conf.Video.GoogleCredentialsFile)
	}
	dr, err := drive.NewService(ctx, driveOpt, option.WithScopes(drive.DriveMetadataReadonlyScope))
	if err != nil {
		return nil, errors.Wrap(err, "creating drive client")
	}

	return &Lookup{
		youtube: func(ctx context.Context, videoID string) (string, error) {
			res, err := yt.Videos.List([]string{"contentDetails"}).Id(videoID).Context(ctx).Do()
			if err != nil {
				return "", err
			}
			if len(res.Items) == 0 || res.Items[0].ContentDetails == nil {
				return "", core.ErrVideoNotFound
			}
			return res.Items[0].ContentDetails.Duration, nil
		},
		drive: func(ctx context.Context, fileID string) (time.Duration, error) {
			f, err := dr.Files.Get(fileID).Fields("videoMediaMetadata").Context(ctx).Do()
			if err != nil {
				var gErr *googleapi.Error
				if errors.As(err, &gErr) && gErr.Code == http.StatusNotFound {
					return 0, core.ErrVideoNotFound
				}
				return 0, err
			}
			if f.VideoMediaMetadata == nil {
				return 0, core.ErrVideoNotFound
			}
			return time.Duration(f.VideoMediaMetadata.DurationMillis) * time.Millisecond, nil
		},
	}, nil
}

// Duration looks up a video by URL. URLs that are neither YouTube nor Google Drive videos fail
// with core.ErrUnsupportedVideoURL.
func (l *Lookup) Duration(ctx context.Context, videoURL string) (time.Duration, error) {
	if m := youtubeURL.FindStringSubmatch(videoURL); m != nil {
		iso, err := l.youtube(ctx, m[1])
		if err != nil {
			return 0, errors.Wrap(err, "fetching youtube video")
		}
		return parseISODuration(iso)
	}
	if m := driveURL.FindStringSubmatch(videoURL); m != nil {
		d, err := l.drive(ctx, m[1])
		return d, errors.Wrap(err, "fetching drive file")
	}
	return 0, core.ErrUnsupportedVideoURL
}

// parseISODuration parses the "P#DT#H#M#S" durations returned by the YouTube API.
func parseISODuration(s string) (time.Duration, error) {
	m := isoDuration.FindStringSubmatch(s)
	if m == nil || s == "P" || strings.HasSuffix(s, "T") {
		return 0, errors.Wrapf(errInvalidISODuration, "parsing %q", s)
	}
	var d time.Duration
	for i, unit := range []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, errors.Wrapf(err, "parsing %q", s)
		}
		d += time.Duration(n) * unit
	}
	return d, nil
}
