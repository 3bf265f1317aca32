package utils

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"pgstay/models"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	MaxImageSize  = 5 << 20
	MaxImageFiles = 6
)

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

// CheckImageFile enforces the size limit and accepts only jpg, jpeg, png and
// webp, judged by both the extension and the sniffed content.
func CheckImageFile(file *multipart.FileHeader) error {
	if file.Size > MaxImageSize {
		return fmt.Errorf("%s is larger than 5MB", file.Filename)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExtensions[ext] {
		return fmt.Errorf("%s must be a jpg, jpeg, png or webp image", file.Filename)
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("%s could not be read", file.Filename)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return fmt.Errorf("%s could not be read", file.Filename)
	}
	if !mimetype.EqualsAny(mtype.String(), allowedImageTypes...) {
		return fmt.Errorf("%s is not a valid image", file.Filename)
	}
	return nil
}

// UploadImages pushes every file to the store in order. On failure the images
// already uploaded by this call are removed again; rollback failures are
// joined onto the returned error.
func UploadImages(ctx context.Context, store ImageStore, files []*multipart.FileHeader) ([]models.Photo, error) {
	photos := make([]models.Photo, 0, len(files))
	for _, file := range files {
		photo, err := uploadOne(ctx, store, file)
		if err != nil {
			errs := []error{err}
			for _, uploaded := range photos {
				if derr := store.Destroy(ctx, uploaded.PublicID); derr != nil {
					errs = append(errs, fmt.Errorf("rollback %s: %w", uploaded.PublicID, derr))
				}
			}
			return nil, errors.Join(errs...)
		}
		photos = append(photos, photo)
	}
	return photos, nil
}

func uploadOne(ctx context.Context, store ImageStore, file *multipart.FileHeader) (models.Photo, error) {
	// Open the uploaded file
	src, err := file.Open()
	if err != nil {
		return models.Photo{}, err
	}
	defer src.Close()

	return store.Upload(ctx, file.Filename, src)
}
