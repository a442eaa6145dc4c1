package cloudinaryad

import (
	"context"
	"io"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"quickstay/internal/adapters/observability"
)

type Uploader struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func New(cloudName, apiKey, apiSecret, folder string) (*Uploader, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	cld.Config.URL.Secure = true
	return &Uploader{cld: cld, folder: folder}, nil
}

// Upload stores one image and returns its hosted URL.
func (u *Uploader) Upload(ctx context.Context, r io.Reader, name string) (string, error) {
	start := time.Now()
	res, err := u.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:           u.folder,
		FilenameOverride: name,
		ResourceType:     "image",
	})
	status := 200
	if err != nil {
		status = 0
	}
	observability.ObserveExternal("cloudinary", "upload", status, time.Since(start))
	if err != nil {
		return "", err
	}
	return res.SecureURL, nil
}
