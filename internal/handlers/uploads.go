package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// maxUploadMemory bounds how much of a multipart body is held in memory
// before spilling to disk.
const maxUploadMemory = 32 << 20

// errNoFile indicates the multipart form did not carry the named file field.
var errNoFile = errors.New("file field missing")

// stageUpload buffers one multipart file field into the staging directory and
// returns the local temp path. The caller owns the file; the media relay
// removes it after the remote upload settles.
func stageUpload(r *http.Request, field, dir string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", errNoFile
		}
		return "", fmt.Errorf("read multipart field %s: %w", field, err)
	}
	defer file.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}

	name := uuid.NewString() + filepath.Ext(header.Filename)
	path := filepath.Join(dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}

	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("buffer staged file: %w", err)
	}

	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("flush staged file: %w", err)
	}

	return path, nil
}
