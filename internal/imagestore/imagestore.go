package imagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Store persists product images. The reference returned by Save is what a
// product keeps in its image field.
type Store interface {
	// Save stores the upload and returns its reference.
	Save(ctx context.Context, upload *Upload) (string, error)

	// Delete removes a previously stored image. Unknown references are ignored.
	Delete(ctx context.Context, ref string) error

	// Owns reports whether ref was produced by this store.
	Owns(ref string) bool
}

var (
	// ErrUnsupportedType is returned for uploads that are not images.
	ErrUnsupportedType = errors.New("unsupported image type")

	// ErrTooLarge is returned for uploads above the size limit.
	ErrTooLarge = errors.New("image exceeds size limit")
)

// allowedTypes maps accepted sniffed MIME types to their default extension.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// Upload is an accepted image ready to be stored.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Prepare reads an uploaded file, checks its size and sniffed content type and
// names it <unix-nano><ext>. The extension always follows the sniffed type, so
// files are served with an image Content-Type whatever the client called them.
func Prepare(r io.Reader, originalName string, maxBytes int64, now time.Time) (*Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s is %s", ErrUnsupportedType, originalName, contentType)
	}

	return &Upload{
		Name:        strconv.FormatInt(now.UnixNano(), 10) + ext,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func (u *Upload) reader() io.Reader {
	return bytes.NewReader(u.Data)
}
