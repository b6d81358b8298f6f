package storage

import (
	"strings"

	"github.com/timmy/vendorseo/internal/config"
)

// NewStorage builds the S3 client described by the archive configuration.
func NewStorage(cfg *config.ArchiveConfig) (*S3Storage, error) {
	storeType := StorageType(strings.ToLower(cfg.Type))
	if storeType == "" || storeType == "minio" {
		storeType = detectStorageType(cfg.Endpoint)
	}

	return NewS3Storage(&S3Config{
		Type:      storeType,
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
	})
}

func detectStorageType(endpoint string) StorageType {
	endpoint = strings.ToLower(endpoint)
	switch {
	case strings.Contains(endpoint, "r2.cloudflarestorage.com"):
		return StorageTypeR2
	case strings.Contains(endpoint, "amazonaws.com"):
		return StorageTypeS3
	default:
		return StorageTypeS3Compatible
	}
}
