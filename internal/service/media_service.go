package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/rs/zerolog"

	"trailbook/api/internal/apperror"
	"trailbook/api/internal/ids"
	"trailbook/api/internal/repository"
	"trailbook/api/internal/storage"
)

const maxImageBytes = 5 << 20 // 5 MiB per image

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// MediaService puts tour and user images into the object store and records
// their keys on the owning row.
type MediaService struct {
	tours *repository.TourRepository
	store *storage.ObjectStore
	log   zerolog.Logger
}

func NewMediaService(tours *repository.TourRepository, store *storage.ObjectStore, log zerolog.Logger) *MediaService {
	return &MediaService{
		tours: tours,
		store: store,
		log:   log,
	}
}

// readImage loads and type-checks one uploaded file. Only JPEG and PNG are
// accepted; the type is sniffed from content, not trusted from the header.
func readImage(file multipart.File, header *multipart.FileHeader) ([]byte, string, error) {
	if header.Size > maxImageBytes {
		return nil, "", apperror.BadRequest("Image too large, limit is 5 MB")
	}

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxImageBytes {
		return nil, "", apperror.BadRequest("Image too large, limit is 5 MB")
	}

	contentType := http.DetectContentType(data)
	if _, ok := imageExtensions[contentType]; !ok {
		return nil, "", apperror.BadRequest("Not an image! Please upload only images")
	}
	return data, contentType, nil
}

func (s *MediaService) putImage(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", err
	}
	return s.store.PublicURL(key), nil
}

// UploadTourImages stores an optional new cover and gallery for a tour and
// updates the row. Either part may be absent.
func (s *MediaService) UploadTourImages(ctx context.Context, tourID string, cover *multipart.FileHeader, gallery []*multipart.FileHeader) error {
	if _, err := s.tours.GetByID(ctx, tourID); err != nil {
		if errors.Is(err, repository.ErrTourNotFound) {
			return apperror.NotFound("There is no tour with that id")
		}
		return err
	}

	var coverURL string
	if cover != nil {
		file, err := cover.Open()
		if err != nil {
			return fmt.Errorf("open cover: %w", err)
		}
		data, contentType, err := readImage(file, cover)
		file.Close()
		if err != nil {
			return err
		}
		key := fmt.Sprintf("tours/%s/cover-%s%s", tourID, ids.New(), imageExtensions[contentType])
		if coverURL, err = s.putImage(ctx, key, data, contentType); err != nil {
			return err
		}
	}

	var galleryURLs []string
	for i, header := range gallery {
		file, err := header.Open()
		if err != nil {
			return fmt.Errorf("open image %d: %w", i, err)
		}
		data, contentType, err := readImage(file, header)
		file.Close()
		if err != nil {
			return err
		}
		key := fmt.Sprintf("tours/%s/image-%d-%s%s", tourID, i+1, ids.New(), imageExtensions[contentType])
		url, err := s.putImage(ctx, key, data, contentType)
		if err != nil {
			return err
		}
		galleryURLs = append(galleryURLs, url)
	}

	if coverURL == "" && galleryURLs == nil {
		return apperror.BadRequest("No images in request")
	}
	return s.tours.UpdateImages(ctx, tourID, coverURL, galleryURLs)
}

// UploadUserPhoto stores a profile photo and returns its URL; the caller
// persists it on the user row as part of the profile update.
func (s *MediaService) UploadUserPhoto(ctx context.Context, userID string, header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open photo: %w", err)
	}
	defer file.Close()

	data, contentType, err := readImage(file, header)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("users/%s/photo-%s%s", userID, ids.New(), imageExtensions[contentType])
	return s.putImage(ctx, key, data, contentType)
}
