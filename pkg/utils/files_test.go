package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWorkspaceIsolation(t *testing.T) {
	root := t.TempDir()

	a, err := NewWorkspace(root)
	if err != nil {
		t.Fatalf("NewWorkspace failed: %v", err)
	}
	b, err := NewWorkspace(root)
	if err != nil {
		t.Fatalf("NewWorkspace failed: %v", err)
	}

	if a.Dir == b.Dir {
		t.Fatal("Expected distinct workspace directories")
	}
	if a.Path("processed.wav") == b.Path("processed.wav") {
		t.Error("Expected distinct scratch file paths")
	}

	if err := os.WriteFile(a.Path("x"), []byte("data"), 0o600); err != nil {
		t.Fatalf("writing scratch file: %v", err)
	}
	if err := a.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(a.Dir); !os.IsNotExist(err) {
		t.Errorf("Expected workspace to be removed, stat err=%v", err)
	}
	if _, err := os.Stat(b.Dir); err != nil {
		t.Errorf("Releasing one workspace removed another: %v", err)
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	dst := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(src, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile failed: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("Expected source to be gone")
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "hello" {
		t.Errorf("Unexpected destination content %q (%v)", got, err)
	}
}

func TestSiblingPath(t *testing.T) {
	got := SiblingPath(filepath.Join("clips", "match_42.mp4"), "_result.mp4")
	if want := filepath.Join("clips", "match_42_result.mp4"); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestHasExtension(t *testing.T) {
	tests := []struct {
		name string
		exts []string
		want bool
	}{
		{"clip.MP4", []string{"mp4"}, true},
		{"hit.wav", []string{"mp3", "wav"}, true},
		{"hit.ogg", []string{"mp3", "wav"}, false},
		{"noext", []string{"mp4"}, false},
	}
	for _, tt := range tests {
		if got := HasExtension(tt.name, tt.exts...); got != tt.want {
			t.Errorf("HasExtension(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
