package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/Nephrolytics-ai/chartscribe/pkg/logging"
	"github.com/Nephrolytics-ai/chartscribe/pkg/utils"
)

// FSStorage writes blobs under a local directory. The server serves the
// directory at baseURL, which makes the returned references fetchable by the
// ingest adapter.
type FSStorage struct {
	dir     string
	baseURL string
}

func NewFSStorage(dir, baseURL string) *FSStorage {
	return &FSStorage{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Dir returns the root directory blobs are written under.
func (s *FSStorage) Dir() string {
	return s.dir
}

func (s *FSStorage) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	fullPath := filepath.Join(s.dir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", utils.WrapIfNotNil(err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", utils.WrapIfNotNil(err)
	}

	logging.NewLogger(ctx).Infof("blob_put backend=fs path=%q bytes=%d content_type=%q", path, len(data), contentType)
	return s.baseURL + "/" + path, nil
}
