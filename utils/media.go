package utils

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/models"
)

const postImagesDir = "posts_images"

var (
	ErrImageType     = errors.New("upload a valid image: JPEG, PNG or GIF")
	ErrImageTooLarge = errors.New("image file is too large")
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// ImageStore keeps post images on the local filesystem below Root and serves them under URLPrefix.
type ImageStore struct {
	Root      string
	URLPrefix string
	MaxBytes  int64
}

// NewImageStore builds a store from the media settings.
func NewImageStore(cfg config.AppConfig) *ImageStore {
	maxMB := cfg.MaxImageSizeMB
	if maxMB <= 0 {
		maxMB = 5
	}
	return &ImageStore{
		Root:      cfg.MediaRoot,
		URLPrefix: strings.TrimRight(cfg.MediaURL, "/"),
		MaxBytes:  int64(maxMB) << 20,
	}
}

// Check validates size and sniffed content type without storing anything.
func (s *ImageStore) Check(fh *multipart.FileHeader) (string, error) {
	if s.MaxBytes > 0 && fh.Size > s.MaxBytes {
		return "", ErrImageTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("detect image type: %w", err)
	}
	for m, ext := range allowedImageTypes {
		if mt.Is(m) {
			return ext, nil
		}
	}
	return "", ErrImageType
}

// Save stores the upload as posts_images/YYYY/MM/DD/<uuid>.<ext> and returns that relative path.
func (s *ImageStore) Save(fh *multipart.FileHeader, now time.Time) (string, error) {
	ext, err := s.Check(fh)
	if err != nil {
		return "", err
	}
	rel := path.Join(postImagesDir, now.Format("2006/01/02"), uuid.NewString()+ext)
	full := s.Path(rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()
	dst, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("write image file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close image file: %w", err)
	}
	return rel, nil
}

// Path maps a stored relative path to the filesystem.
func (s *ImageStore) Path(rel string) string {
	return filepath.Join(s.Root, filepath.FromSlash(rel))
}

// URL maps a stored relative path to its public URL. Empty paths stay empty.
func (s *ImageStore) URL(rel string) string {
	if rel == "" {
		return ""
	}
	return s.URLPrefix + "/" + rel
}

// Discard deletes a just-saved image whose post was never stored.
func (s *ImageStore) Discard(rel string) error {
	if rel == "" {
		return nil
	}
	if err := os.Remove(s.Path(rel)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// QueueRemoval records an image that is no longer referenced so the sweeper removes it after delay.
func (s *ImageStore) QueueRemoval(db *gorm.DB, rel string, delay time.Duration) error {
	if rel == "" {
		return nil
	}
	return db.Create(&models.UploadedFile{
		FilePath: s.Path(rel),
		URL:      s.URL(rel),
		ExpireAt: time.Now().Add(delay),
	}).Error
}
