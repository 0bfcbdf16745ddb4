package mediasvc

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/coursehub/lms/core"
)

var errInvalidPublicID = errors.New("invalid public id")

// LocalStore keeps uploads on disk, under conf.Media.Dir, served from conf.Media.BaseURL.
type LocalStore struct {
	dir     string
	baseURL string
	folder  string
}

var _ core.MediaStore = (*LocalStore)(nil)

func NewLocalStore(conf *core.Config) *LocalStore {
	return &LocalStore{
		dir:     conf.Media.Dir,
		baseURL: strings.TrimSuffix(conf.Media.BaseURL, "/"),
		folder:  conf.Media.Folder,
	}
}

// Dir is the root directory of the uploads.
func (s *LocalStore) Dir() string { return s.dir }

// filePath maps a public id to its file, refusing ids that escape the uploads dir.
func (s *LocalStore) filePath(publicID string) (string, error) {
	clean := path.Clean("/" + publicID)[1:]
	if clean == "" || clean != publicID {
		return "", errInvalidPublicID
	}
	return filepath.Join(s.dir, filepath.FromSlash(clean)), nil
}

func (s *LocalStore) Upload(_ context.Context, r io.Reader, filename string, kind core.MediaKind) (core.UploadedFile, error) {
	ext := strings.ToLower(path.Ext(filename))
	publicID := path.Join(s.folder, string(kind)+"s", uuid.NewString()+ext)

	fp, err := s.filePath(publicID)
	if err != nil {
		return core.UploadedFile{}, err
	}
	if err = os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return core.UploadedFile{}, errors.Wrap(err, "creating upload dir")
	}

	f, err := os.Create(fp)
	if err != nil {
		return core.UploadedFile{}, errors.Wrap(err, "creating file")
	}
	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(fp)
		return core.UploadedFile{}, errors.Wrap(err, "writing file")
	}
	if err = f.Close(); err != nil {
		return core.UploadedFile{}, errors.Wrap(err, "closing file")
	}
	return core.UploadedFile{PublicID: publicID, URL: s.baseURL + "/" + publicID}, nil
}

// Delete removes an upload. Deleting a missing file is not an error.
func (s *LocalStore) Delete(_ context.Context, publicID string, _ core.MediaKind) error {
	fp, err := s.filePath(publicID)
	if err != nil {
		return err
	}
	if err = os.Remove(fp); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing file")
	}
	return nil
}
