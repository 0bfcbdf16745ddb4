package core

import (
	"context"
	"io"
)

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// UploadedFile is the permanent reference returned by a MediaStore.
type UploadedFile struct {
	PublicID string `json:"publicId"`
	URL      string `json:"url"`
}

// MediaStore is any service that can host uploaded files.
type MediaStore interface {
	Upload(ctx context.Context, r io.Reader, filename string, kind MediaKind) (UploadedFile, error)
	Delete(ctx context.Context, publicID string, kind MediaKind) error
}
