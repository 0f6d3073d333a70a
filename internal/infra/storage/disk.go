package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/niteshawasthi21/pjv-backend/internal/core/port"
)

// DiskStore writes avatar files to a local directory. The stored reference
// is the generated file name relative to the directory.
type DiskStore struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewDiskStore ensures the target directory exists and returns a store.
func NewDiskStore(dir string, logger *zap.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	return &DiskStore{dir: dir, logger: logger, now: time.Now}, nil
}

// Save writes the avatar content under a timestamped name derived from the
// original file's extension.
func (s *DiskStore) Save(ctx context.Context, accountID, filename string, content io.Reader, size int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := avatarObjectName(s.now(), filename)

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create avatar file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		return "", fmt.Errorf("write avatar file: %w", err)
	}

	s.logger.Debug("avatar stored on disk",
		zap.String("account_id", accountID),
		zap.String("file", name),
		zap.Int64("size", size),
	)

	return name, nil
}

// avatarObjectName builds avatar-<unix millis><ext> from the original
// filename, keeping only the extension.
func avatarObjectName(at time.Time, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("avatar-%d%s", at.UnixMilli(), ext)
}

var _ port.AvatarStore = (*DiskStore)(nil)
