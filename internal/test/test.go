package test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"golang.org/x/tools/txtar"
)

func FixtureDir(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime.Caller failed")
	}
	return filepath.Join(filepath.Dir(filename), "..", "..", "testdata")
}

func FixturePath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(FixtureDir(t), name)
}

func ReadGolden(t *testing.T, name string) string {
	t.Helper()
	path := FixturePath(t, name)
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read golden file %s: %v", path, err)
	}
	return string(b)
}

// ReadArchive parses the txtar fixture name and indexes its files by name.
func ReadArchive(t *testing.T, name string) map[string]string {
	t.Helper()
	path := FixturePath(t, name)
	ar, err := txtar.ParseFile(path)
	if err != nil {
		t.Fatalf("failed to read archive %s: %v", path, err)
	}
	files := make(map[string]string, len(ar.Files))
	for _, f := range ar.Files {
		files[f.Name] = string(f.Data)
	}
	return files
}

// ArchiveFile returns one file of a txtar fixture.
func ArchiveFile(t *testing.T, name, file string) string {
	t.Helper()
	files := ReadArchive(t, name)
	data, ok := files[file]
	if !ok {
		t.Fatalf("archive %s has no file %s", name, file)
	}
	return data
}

// CopyFixture copies the fixture name into dir and returns the new path.
func CopyFixture(t *testing.T, name, dir string) string {
	t.Helper()
	data, err := os.ReadFile(FixturePath(t, name))
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write fixture copy %s: %v", path, err)
	}
	return path
}
