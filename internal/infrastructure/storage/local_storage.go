package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "homexa/pkg/errors"
)

const attachmentsSubdir = "attachments"

// LocalStorage persists chat attachments under the upload directory and
// serves them back as /uploads/attachments/<name> URLs.
type LocalStorage struct {
	baseDir      string
	publicPrefix string
}

func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	dir := filepath.Join(baseDir, attachmentsSubdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &LocalStorage{
		baseDir:      baseDir,
		publicPrefix: "/" + filepath.ToSlash(filepath.Join(filepath.Base(baseDir), attachmentsSubdir)) + "/",
	}, nil
}

// Save writes the file and returns its public URL. The original name is
// reduced to lowercase alphanumerics so URLs stay unambiguous.
func (s *LocalStorage) Save(filename string, src io.Reader) (string, error) {
	name := fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), sanitizeBase(filename), strings.ToLower(filepath.Ext(filename)))
	path := filepath.Join(s.baseDir, attachmentsSubdir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", apperrors.Internal("Failed to store attachment", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", apperrors.Internal("Failed to store attachment", err)
	}

	return s.publicPrefix + name, nil
}

// Remove unlinks the file backing a previously saved URL. URLs outside the
// upload prefix are refused so callers cannot reach arbitrary paths.
func (s *LocalStorage) Remove(fileURL string) error {
	if !strings.HasPrefix(fileURL, s.publicPrefix) {
		return apperrors.BadRequest("File is not managed by this store", nil)
	}

	name := filepath.Base(strings.TrimPrefix(fileURL, s.publicPrefix))
	path := filepath.Join(s.baseDir, attachmentsSubdir, name)

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return nil
}

func sanitizeBase(filename string) string {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	var b strings.Builder
	for _, r := range base {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
