package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UploadService stores product images on disk and links them to
// catalog entries. Files are renamed to random UUIDs so uploads can
// never collide or traverse paths.
type UploadService interface {
	SaveProductImage(ctx context.Context, actor Actor, productID int64, filename string, size int64, r io.Reader) (*ProductView, error)
}

// allowedImageExts is the accepted set of image extensions, lowercase.
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

type uploadService struct {
	dir      string
	maxBytes int64
	products ProductService
}

// NewUploadService wires the upload directory and the catalog service.
func NewUploadService(dir string, maxBytes int64, products ProductService) UploadService {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &uploadService{dir: dir, maxBytes: maxBytes, products: products}
}

func (s *uploadService) SaveProductImage(ctx context.Context, actor Actor, productID int64, filename string, size int64, r io.Reader) (*ProductView, error) {
	if !actor.IsAdmin {
		return nil, ErrNotAuthorized
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExts[ext] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}
	if size > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrUploadTooLarge, size, s.maxBytes)
	}

	// Ensure the product exists before touching the filesystem.
	if _, err := s.products.Get(ctx, productID); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	name := uuid.NewString() + ext
	dest := filepath.Join(s.dir, name)

	f, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	written, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dest)
		return nil, fmt.Errorf("write upload: %w", err)
	}
	if written > s.maxBytes {
		os.Remove(dest)
		return nil, fmt.Errorf("%w: max %d bytes", ErrUploadTooLarge, s.maxBytes)
	}

	view, err := s.products.AttachImage(ctx, actor, productID, name)
	if err != nil {
		os.Remove(dest)
		return nil, err
	}
	return view, nil
}
