package archive

import (
	"context"

	"cogbattery/internal/config"
	"cogbattery/internal/infra/archive/fs"
	"cogbattery/internal/infra/archive/memory"
	"cogbattery/internal/infra/archive/s3"

	"github.com/m-mizutani/goerr/v2"
)

// Open selects a Store from the archive settings. It returns a nil Store and
// no error when archiving is disabled (driver "" or "none").
func Open(ctx context.Context, cfg config.Archive) (Store, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case string(DriverFilesystem):
		return fs.New(cfg.FSRoot)
	case string(DriverMemory):
		return memory.New(), nil
	case string(DriverS3):
		return s3.New(ctx, s3.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			PathStyle:       cfg.S3.PathStyle,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
	default:
		return nil, goerr.New("unknown archive driver", goerr.V("driver", cfg.Driver))
	}
}
