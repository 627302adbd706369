package storage

import (
	"fmt"

	"github.com/xelth-com/eckdocs/internal/config"
)

// Open builds the blob store cfg selects. localRoot is the directory to serve
// under /files when the local driver is used, empty otherwise.
func Open(cfg config.StorageConfig) (store BlobStore, localRoot string, err error) {
	switch cfg.Driver {
	case "s3":
		s3, err := NewS3Store(S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
		if err != nil {
			return nil, "", err
		}
		return s3, "", nil
	case "local", "":
		local, err := NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, "", err
		}
		return local, local.Root(), nil
	default:
		return nil, "", fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
