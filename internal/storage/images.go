// Package storage keeps product images on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const MaxImageSize = 5 << 20

// URLPrefix is where LocalImageStore files are served from.
const URLPrefix = "/uploads"

var (
	ErrUnsupportedImage = errors.New("only .jpg, .jpeg, .png and .webp images are accepted")
	ErrImageTooLarge    = errors.New("max image size is 5MB")
)

var allowedExt = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// Image is an upload not yet written anywhere. Size is the size the client declared.
type Image struct {
	Filename string
	Size     int64
	Body     io.Reader
}

type ImageStore interface {
	// Save stores the image under a fresh random name and returns its public URL.
	Save(ctx context.Context, img Image) (string, error)
	// Delete removes the file behind url. Unknown urls are ignored.
	Delete(ctx context.Context, url string) error
}

func ValidateImage(img Image) error {
	if _, ok := allowedExt[strings.ToLower(filepath.Ext(img.Filename))]; !ok {
		return ErrUnsupportedImage
	}
	if img.Size > MaxImageSize {
		return ErrImageTooLarge
	}
	return nil
}

type LocalImageStore struct {
	Dir       string
	URLPrefix string
}

func NewLocalImageStore(dir string) *LocalImageStore {
	return &LocalImageStore{Dir: dir, URLPrefix: URLPrefix}
}

func (s *LocalImageStore) Save(ctx context.Context, img Image) (string, error) {
	if err := ValidateImage(img); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: create upload dir: %w", err)
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(img.Filename))
	full := filepath.Join(s.Dir, name)

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("storage: create %s: %w", name, err)
	}

	n, err := io.Copy(f, io.LimitReader(img.Body, MaxImageSize+1))
	closeErr := f.Close()
	switch {
	case err != nil:
		_ = os.Remove(full)
		return "", fmt.Errorf("storage: write %s: %w", name, err)
	case closeErr != nil:
		_ = os.Remove(full)
		return "", fmt.Errorf("storage: close %s: %w", name, closeErr)
	case n > MaxImageSize:
		_ = os.Remove(full)
		return "", ErrImageTooLarge
	}

	return path.Join(s.URLPrefix, name), nil
}

func (s *LocalImageStore) Delete(ctx context.Context, url string) error {
	prefix := strings.TrimSuffix(s.URLPrefix, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return nil
	}
	name := filepath.Base(strings.TrimPrefix(url, prefix))
	if name == "." || name == "/" || name == "" {
		return nil
	}

	if err := os.Remove(filepath.Join(s.Dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: remove %s: %w", name, err)
	}
	return nil
}
