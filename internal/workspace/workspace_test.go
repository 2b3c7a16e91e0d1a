package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWorkspace(t *testing.T) {
	tests := []struct {
		name       string
		keep       bool
		wantExists bool
	}{
		{name: "removed", keep: false, wantExists: false},
		{name: "kept", keep: true, wantExists: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := filepath.Join(t.TempDir(), "runs")
			w, err := New(root, tt.keep)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if filepath.Dir(w.Dir()) != root {
				t.Errorf("Dir() = %q, want a child of %q", w.Dir(), root)
			}
			if err := os.WriteFile(w.Path("model.xml"), []byte("<nta/>"), 0o644); err != nil {
				t.Fatal(err)
			}

			if err := w.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("second Close() error = %v", err)
			}
			_, err = os.Stat(w.Path("model.xml"))
			if exists := !errors.Is(err, os.ErrNotExist); exists != tt.wantExists {
				t.Errorf("file exists after Close() = %v, want %v", exists, tt.wantExists)
			}
		})
	}
}

func TestWorkspacesAreDistinct(t *testing.T) {
	root := t.TempDir()
	a, err := New(root, false)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := New(root, false)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if a.Dir() == b.Dir() || a.ID() == b.ID() {
		t.Errorf("workspaces share %q", a.Dir())
	}
}
