// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hashing

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestFileHash(t *testing.T) {
	dir := t.TempDir()

	write := func(name string, data []byte) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	a := write("a.pdf", []byte("fake pdf content"))
	sameContent := write("renamed.pdf", []byte("fake pdf content"))
	different := write("b.pdf", []byte("other pdf content"))

	hashA, err := FileHash(a)
	if err != nil {
		t.Fatalf("FileHash: %v", err)
	}
	if len(hashA) != 12 {
		t.Errorf("hash length = %d, want 12", len(hashA))
	}

	hashSame, err := FileHash(sameContent)
	if err != nil {
		t.Fatal(err)
	}
	if hashSame != hashA {
		t.Errorf("identical content should hash equal: %q vs %q", hashSame, hashA)
	}

	hashDiff, err := FileHash(different)
	if err != nil {
		t.Fatal(err)
	}
	if hashDiff == hashA {
		t.Errorf("different content should hash differently")
	}
}

func TestFileHash_SizeMatters(t *testing.T) {
	dir := t.TempDir()

	// Two files sharing the same first MiB but with different total sizes
	// must hash differently.
	prefix := bytes.Repeat([]byte{0x42}, 1<<20)
	short := filepath.Join(dir, "short.pdf")
	long := filepath.Join(dir, "long.pdf")
	if err := os.WriteFile(short, prefix, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(long, append(append([]byte{}, prefix...), []byte("tail")...), 0o644); err != nil {
		t.Fatal(err)
	}

	h1, err := FileHash(short)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := FileHash(long)
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Error("files with equal prefix but different sizes should hash differently")
	}
}

func TestFileHash_Missing(t *testing.T) {
	if _, err := FileHash(filepath.Join(t.TempDir(), "nope.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestContentHash(t *testing.T) {
	h := ContentHash([]byte("hello"))
	if len(h) != 12 {
		t.Errorf("hash length = %d, want 12", len(h))
	}
	if h != ContentHash([]byte("hello")) {
		t.Error("ContentHash should be deterministic")
	}
	if h == ContentHash([]byte("world")) {
		t.Error("different inputs should hash differently")
	}
}

func TestStringHash(t *testing.T) {
	if StringHash("some title") != ContentHash([]byte("some title")) {
		t.Error("StringHash should match ContentHash on the same bytes")
	}
}
