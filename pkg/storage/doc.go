// Copyright © 2018 One Concern

// Package storage provides interface to handle backend storage objects.
//
// Release archives and patches are read from and written to stores.
// This package supports the following backends:
//   - GCS (Google)
//   - S3 (AWS)
//   - HTTP(S), read-only
//   - local file system
package storage
