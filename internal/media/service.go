package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"CampusEvents/internal/config"

	"github.com/gabriel-vasile/mimetype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrNotImage      = errors.New("Only image files are allowed")
	ErrFileTooLarge  = errors.New("File exceeds the upload size limit")
	ErrImageNotFound = errors.New("Image not found")
)

// Raster formats only. SVG sniffs as an image but can carry script.
var allowedTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

type Upload struct {
	FileID   string `json:"fileId"`
	FilePath string `json:"filePath"`
}

type MediaService struct {
	store    Store
	maxBytes int64
	logger   *zap.Logger
}

func NewMediaService(store Store, cfg *config.AppConfig, logger *zap.Logger) *MediaService {
	return &MediaService{store: store, maxBytes: cfg.UploadMaxBytes, logger: logger}
}

// Path is where a stored image is served from.
func Path(id primitive.ObjectID) string {
	return "/api/images/" + id.Hex()
}

// Save stores an uploaded image after sniffing its content type.
func (s *MediaService) Save(ctx context.Context, header *multipart.FileHeader) (*Upload, error) {
	if s.maxBytes > 0 && header.Size > s.maxBytes {
		return nil, ErrFileTooLarge
	}
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return nil, fmt.Errorf("detect content type: %w", err)
	}
	if !mimetype.EqualsAny(mtype.String(), allowedTypes...) {
		return nil, ErrNotImage
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	id, err := s.store.Put(ctx, header.Filename, mtype.String(), file)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	s.logger.Info("Image uploaded",
		zap.String("fileId", id.Hex()),
		zap.String("contentType", mtype.String()),
		zap.Int64("size", header.Size))
	return &Upload{FileID: id.Hex(), FilePath: Path(id)}, nil
}

// Open returns the image stream; callers close it.
func (s *MediaService) Open(ctx context.Context, id primitive.ObjectID) (io.ReadCloser, *File, error) {
	r, f, err := s.store.Open(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if r == nil {
		return nil, nil, ErrImageNotFound
	}
	if !mimetype.EqualsAny(f.ContentType, allowedTypes...) {
		served := *f
		served.ContentType = "application/octet-stream"
		f = &served
	}
	return r, f, nil
}
