package kv

import (
	"fmt"

	"github.com/allgemeinbildung/abubox/internal/config"
	"github.com/allgemeinbildung/abubox/internal/util/compression"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
	DriverRedis  = "redis"
	DriverS3     = "s3"
)

// Open builds the store selected by cfg.Driver.
func Open(cfg config.StorageConfig) (Store, error) {
	compressor, err := compression.ForName(cfg.Compression)
	if err != nil {
		return nil, err
	}

	kvLogger.Debug().Str("driver", cfg.Driver).Str("compression", cfg.Compression).Msg("Opening store")

	switch cfg.Driver {
	case DriverMemory:
		return NewMemory(WithQuota(cfg.QuotaBytes)), nil
	case DriverSQLite:
		return OpenSQLite(cfg.Path, compressor)
	case DriverBolt:
		return OpenBolt(cfg.Path, compressor)
	case DriverRedis:
		return OpenRedis(cfg.Redis.URL)
	case DriverS3:
		return OpenS3(S3Options{
			Bucket:          cfg.S3.Bucket,
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PathStyle:       cfg.S3.Endpoint != "",
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
