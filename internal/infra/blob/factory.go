// Package blob selects a blob store backend from environment configuration.
package blob

import (
	"context"
	"fmt"
	"os"

	"spacecore/internal/infra/blob/core"
	"spacecore/internal/infra/blob/fs"
	"spacecore/internal/infra/blob/memory"
	"spacecore/internal/infra/blob/s3"
)

// Blob driver selection environment variables.
const (
	EnvDriver = "SPACECORE_BLOB_DRIVER"
	EnvFSRoot = "SPACECORE_BLOB_FS_ROOT"
)

// Open constructs a blob store from the environment.
//
//	SPACECORE_BLOB_DRIVER:  fs|s3|memory (default fs)
//	SPACECORE_BLOB_FS_ROOT: directory root when driver=fs (default ./blobdata)
//	(S3 variables are documented in the s3 package.)
func Open(ctx context.Context) (core.Store, error) {
	driver := os.Getenv(EnvDriver)
	if driver == "" {
		driver = string(core.DriverFilesystem)
	}
	switch core.Driver(driver) {
	case core.DriverFilesystem:
		return fs.New(os.Getenv(EnvFSRoot))
	case core.DriverS3:
		return s3.OpenFromEnv(ctx)
	case core.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", driver)
	}
}
