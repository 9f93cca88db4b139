package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// renameFailFS writes temp files for real but refuses to rename them into place.
type renameFailFS struct {
	FS
}

func (renameFailFS) Rename(oldpath, newpath string) error {
	return errors.New("simulated crash before rename")
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meta.json")

	if err := WriteFileAtomic(NewRealFS(), path, []byte("v1\n"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}
	if err := WriteFileAtomic(NewRealFS(), path, []byte("v2\n"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v2\n" {
		t.Errorf("contents = %q, want %q", got, "v2\n")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("perm = %v, want 0644", info.Mode().Perm())
	}
	assertNoTempFiles(t, dir)
}

func TestWriteFileAtomic_RenameFailureKeepsOldContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meta.json")
	if err := os.WriteFile(path, []byte("old\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := WriteFileAtomic(renameFailFS{NewRealFS()}, path, []byte("new\n"), 0o644)
	if err == nil {
		t.Fatal("expected error when rename fails")
	}

	got, _ := os.ReadFile(path)
	if string(got) != "old\n" {
		t.Errorf("contents = %q, want old contents", got)
	}
	assertNoTempFiles(t, dir)
}

func TestWriteJSONAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rec.json")

	if err := WriteJSONAtomic(NewRealFS(), path, map[string]string{"exp_id": "x"}, 0o644); err != nil {
		t.Fatalf("WriteJSONAtomic() error = %v", err)
	}
	got, _ := os.ReadFile(path)
	want := "{\n  \"exp_id\": \"x\"\n}\n"
	if string(got) != want {
		t.Errorf("contents = %q, want %q", got, want)
	}
}

func TestWriteJSONAtomic_MarshalError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rec.json")

	if err := WriteJSONAtomic(NewRealFS(), path, make(chan int), 0o644); err == nil {
		t.Fatal("expected marshal error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file should not exist after marshal error")
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	fsys := NewRealFS()
	if !Exists(fsys, dir) {
		t.Error("Exists(dir) = false, want true")
	}
	if Exists(fsys, filepath.Join(dir, "missing")) {
		t.Error("Exists(missing) = true, want false")
	}
}

func TestRealFS_CreateTemp(t *testing.T) {
	dir := t.TempDir()
	name, w, err := NewRealFS().CreateTemp(dir, "x-*")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, "hi"); err != nil {
		t.Fatal(err)
	}
	_ = w.Close()
	if !strings.HasPrefix(filepath.Base(name), "x-") {
		t.Errorf("temp name = %q, want x- prefix", name)
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}
