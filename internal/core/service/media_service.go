package service

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
	"github.com/herfa/marketplace-api/pkg/logger"
)

const defaultMaxUploadBytes = 5 << 20

// allowedImageTypes are the raster formats accepted for upload. Scriptable
// image formats such as SVG are served back from a public route and are
// therefore refused.
var allowedImageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// MediaService validates uploads by their content, not their declared type,
// and stores them in the FileStore.
type MediaService struct {
	store    ports.FileStore
	maxBytes int64
	log      zerolog.Logger
}

func NewMediaService(store ports.FileStore, maxBytes int64, log zerolog.Logger) *MediaService {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &MediaService{store: store, maxBytes: maxBytes, log: log}
}

func (s *MediaService) Upload(ctx context.Context, filename string, r io.Reader) (*ports.StoredFile, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, domain.ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, invalidInput("file is empty")
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowedImageTypes...) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedMedia, mt.String())
	}

	stored, err := s.store.Save(ctx, filename, mt.String(), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	logger.Ctx(ctx, s.log).Info().
		Str("file_id", stored.ID).
		Str("content_type", stored.ContentType).
		Int64("size", stored.Size).
		Msg("file uploaded")
	return stored, nil
}

func (s *MediaService) Open(ctx context.Context, id string) (io.ReadCloser, *ports.StoredFile, error) {
	return s.store.Open(ctx, id)
}
