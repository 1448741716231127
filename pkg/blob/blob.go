package blob

import (
	"context"
	"fmt"
	"time"
)

// Storage accepts a binary blob at a caller-chosen path and returns a durable,
// fetchable reference URL. No versioning contract: writing the same path twice
// overwrites.
type Storage interface {
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// ObjectPath builds the per-user, timestamp-qualified storage path for an
// uploaded audio file.
func ObjectPath(userID, fileName string, now time.Time) string {
	return fmt.Sprintf("audio/%s/%d_%s", userID, now.UnixMilli(), fileName)
}
