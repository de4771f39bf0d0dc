package model

import (
	"encoding/hex"
	"io"

	blake2b "github.com/minio/blake2b-simd"
)

// Digest computes the blake2b-512 hex digest of a payload
func Digest(r io.Reader) (string, error) {
	hasher := blake2b.New512()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
