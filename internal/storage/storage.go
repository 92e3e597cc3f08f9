package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ikkim/shopfront-backend/config"
)

// ErrObjectExists is returned when the key is already taken. Keys are never overwritten.
var ErrObjectExists = errors.New("object already exists")

// Object is one stored blob with its HTTP metadata.
type Object struct {
	Key          string
	Body         []byte
	ContentType  string
	CacheControl string
}

// ObjectStorage stores objects and tells where they are publicly served from.
type ObjectStorage interface {
	Put(ctx context.Context, obj Object) error
	PublicURL(key string) string
}

// New picks the backend named by cfg.Storage.Driver.
func New(ctx context.Context, cfg *config.Config) (ObjectStorage, error) {
	switch cfg.Storage.Driver {
	case "s3":
		return NewS3Storage(ctx, cfg.S3)
	case "local", "":
		return NewLocalStorage(cfg.Storage.LocalDir, cfg.Storage.LocalBaseURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
