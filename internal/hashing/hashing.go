// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package hashing generates content-based IDs for papers and chunks.
package hashing

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// idLength is the number of hex characters kept from the digest. 12 chars
// (~48 bits) is enough to avoid collisions at project scale while keeping
// IDs readable in file names.
const idLength = 12

// fileChunkSize is how much of a file is read when hashing (1 MiB).
const fileChunkSize = 1 << 20

// FileHash returns a stable ID for a file from the SHA-256 of its first
// 1 MiB plus its size. Reading only a prefix keeps ingest fast on large
// scans while still detecting changed files.
func FileHash(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.CopyN(h, f, fileChunkSize); err != nil && err != io.EOF {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	fmt.Fprintf(h, "%d", info.Size())

	return fmt.Sprintf("%x", h.Sum(nil))[:idLength], nil
}

// ContentHash returns the truncated SHA-256 of arbitrary bytes.
func ContentHash(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h)[:idLength]
}

// StringHash returns the truncated SHA-256 of a string.
func StringHash(s string) string {
	return ContentHash([]byte(s))
}
