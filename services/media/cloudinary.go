package mediasvc

import (
	"context"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/pkg/errors"

	"github.com/coursehub/lms/core"
)

type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// CloudinaryStore hosts uploads on Cloudinary, in conf.Media.Folder.
type CloudinaryStore struct {
	api    uploadAPI
	folder string
}

var _ core.MediaStore = (*CloudinaryStore)(nil)

func NewCloudinaryStore(conf *core.Config) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(conf.Media.CloudinaryCloud, conf.Media.CloudinaryKey, conf.Media.CloudinarySecret)
	if err != nil {
		return nil, errors.Wrap(err, "creating cloudinary client")
	}
	return &CloudinaryStore{api: &cld.Upload, folder: conf.Media.Folder}, nil
}

// resourceType maps a MediaKind to the Cloudinary resource type.
func resourceType(kind core.MediaKind) string {
	if kind == core.MediaVideo {
		return "video"
	}
	return "image"
}

// Upload lets Cloudinary name the file: filename is ignored.
func (s *CloudinaryStore) Upload(ctx context.Context, r io.Reader, _ string, kind core.MediaKind) (core.UploadedFile, error) {
	res, err := s.api.Upload(ctx, r, uploader.UploadParams{
		Folder:       s.folder,
		ResourceType: resourceType(kind),
	})
	if err != nil {
		return core.UploadedFile{}, errors.Wrap(err, "uploading to cloudinary")
	}
	if res.Error.Message != "" {
		return core.UploadedFile{}, errors.Errorf("uploading to cloudinary: %s", res.Error.Message)
	}
	return core.UploadedFile{PublicID: res.PublicID, URL: res.SecureURL}, nil
}

// Delete removes an upload. Deleting a missing file is not an error.
func (s *CloudinaryStore) Delete(ctx context.Context, publicID string, kind core.MediaKind) error {
	res, err := s.api.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType(kind),
	})
	if err != nil {
		return errors.Wrap(err, "deleting from cloudinary")
	}
	if res.Error.Message != "" {
		return errors.Errorf("deleting from cloudinary: %s", res.Error.Message)
	}
	if res.Result != "ok" && res.Result != "not found" {
		return errors.Errorf("deleting from cloudinary: %s", res.Result)
	}
	return nil
}
