package mediasvc

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehub/lms/core"
)

func TestLocalStore(t *testing.T) {
	conf := core.NewTestConfig()
	conf.Media.Dir = t.TempDir()
	conf.Media.BaseURL = "http://localhost:8000/uploads/"
	store := NewLocalStore(conf)
	ctx := context.Background()

	f, err := store.Upload(ctx, strings.NewReader("frames"), "Intro.MP4", core.MediaVideo)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(f.PublicID, "test/videos/"))
	assert.True(t, strings.HasSuffix(f.PublicID, ".mp4"))
	assert.Equal(t, "http://localhost:8000/uploads/"+f.PublicID, f.URL)

	content, err := os.ReadFile(filepath.Join(store.Dir(), filepath.FromSlash(f.PublicID)))
	require.NoError(t, err)
	assert.Equal(t, "frames", string(content))

	require.NoError(t, store.Delete(ctx, f.PublicID, core.MediaVideo))
	require.NoError(t, store.Delete(ctx, f.PublicID, core.MediaVideo)) // already gone
	_, err = os.Stat(filepath.Join(store.Dir(), filepath.FromSlash(f.PublicID)))
	assert.True(t, os.IsNotExist(err))

	for _, id := range []string{"", "../etc/passwd", "test/../../x", "/abs"} {
		assert.Equal(t, errInvalidPublicID, store.Delete(ctx, id, core.MediaImage), id)
	}
}

type fakeUploadAPI struct {
	uploaded     []uploader.UploadParams
	destroyed    []uploader.DestroyParams
	destroyed404 bool
}

func (f *fakeUploadAPI) Upload(_ context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	if _, err := io.ReadAll(file.(io.Reader)); err != nil {
		return nil, err
	}
	f.uploaded = append(f.uploaded, params)
	if params.Folder == "" {
		return &uploader.UploadResult{Error: api.ErrorResp{Message: "folder required"}}, nil
	}
	id := params.Folder + "/abc123"
	return &uploader.UploadResult{PublicID: id, SecureURL: "https://res.cloudinary.com/demo/" + id}, nil
}

func (f *fakeUploadAPI) Destroy(_ context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.destroyed = append(f.destroyed, params)
	if f.destroyed404 {
		return &uploader.DestroyResult{Result: "not found"}, nil
	}
	return &uploader.DestroyResult{Result: "ok"}, nil
}

func TestCloudinaryStore(t *testing.T) {
	fake := new(fakeUploadAPI)
	store := &CloudinaryStore{api: fake, folder: "Learning-Management-System"}
	ctx := context.Background()

	f, err := store.Upload(ctx, strings.NewReader("frames"), "intro.mp4", core.MediaVideo)
	require.NoError(t, err)
	assert.Equal(t, core.UploadedFile{
		PublicID: "Learning-Management-System/abc123",
		URL:      "https://res.cloudinary.com/demo/Learning-Management-System/abc123",
	}, f)
	assert.Equal(t, "video", fake.uploaded[0].ResourceType)

	require.NoError(t, store.Delete(ctx, f.PublicID, core.MediaImage))
	assert.Equal(t, "image", fake.destroyed[0].ResourceType)
	fake.destroyed404 = true
	require.NoError(t, store.Delete(ctx, f.PublicID, core.MediaImage))

	store.folder = ""
	_, err = store.Upload(ctx, strings.NewReader("frames"), "intro.mp4", core.MediaImage)
	assert.EqualError(t, err, "uploading to cloudinary: folder required")
}
