package port

import (
	"context"
	"io"
)

// AvatarStore persists uploaded avatar images and returns an opaque reference
// string the account row keeps. The store does not inspect image bytes.
type AvatarStore interface {
	Save(ctx context.Context, accountID, filename string, content io.Reader, size int64) (string, error)
}
