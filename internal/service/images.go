package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/hotel-booking/internal/config"
)

// MaxRoomImages caps the images accepted with a new room.
const MaxRoomImages = 4

// Uploader stores an image and returns its public https URL.
type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
}

// CloudinaryUploader uploads images to a Cloudinary folder.
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryUploader(cfg config.ImageConfig) (*CloudinaryUploader, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("cloudinary credentials are not configured")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, err
	}
	return &CloudinaryUploader{cld: cld, folder: cfg.Folder}, nil
}

// uploadParams leaves the public id empty so every upload gets a unique
// asset; client file names collide across rooms and hotels.
func uploadParams(folder string) uploader.UploadParams {
	return uploader.UploadParams{Folder: folder}
}

func (u *CloudinaryUploader) Upload(ctx context.Context, _ string, r io.Reader) (string, error) {
	res, err := u.cld.Upload.Upload(ctx, r, uploadParams(u.folder))
	if err != nil {
		return "", err
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}

// ImageFile is an image waiting to be uploaded.
type ImageFile struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// UploadAll uploads files concurrently and returns their URLs in input
// order.  The first failure cancels the remaining uploads.
func UploadAll(ctx context.Context, up Uploader, files []ImageFile) ([]string, error) {
	urls := make([]string, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			rc, err := f.Open()
			if err != nil {
				return fmt.Errorf("open %s: %w", f.Name, err)
			}
			defer rc.Close()
			url, err := up.Upload(ctx, f.Name, rc)
			if err != nil {
				return fmt.Errorf("upload %s: %w", f.Name, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}
