package remote

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatal(err)
	}
}

func TestLocalFolderUploadDir(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "remote")
	folder := NewLocalFolder(root)
	if err := folder.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	local := filepath.Join(t.TempDir(), "simulations-scripts_1")
	writeFile(t, filepath.Join(local, "a.sh"), "echo a", 0644)

	dest, err := folder.UploadDir(ctx, local, UploadOptions{})
	if err != nil {
		t.Fatalf("UploadDir failed: %v", err)
	}
	if want := filepath.Join(root, "simulations-scripts_1"); dest != want {
		t.Errorf("UploadDir = %q; want %q", dest, want)
	}

	// A second upload with EmptyDest drops remote files gone locally
	writeFile(t, filepath.Join(dest, "stale.txt"), "old", 0644)
	if _, err := folder.UploadDir(ctx, local, UploadOptions{EmptyDest: true}); err != nil {
		t.Fatalf("UploadDir failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "stale.txt")); !os.IsNotExist(err) {
		t.Errorf("stale file survived an upload with EmptyDest")
	}
	if _, err := os.Stat(filepath.Join(dest, "a.sh")); err != nil {
		t.Errorf("uploaded file missing: %v", err)
	}
}

func TestLocalFolderUploadKeepsMode(t *testing.T) {
	ctx := context.Background()
	folder := NewLocalFolder(t.TempDir())

	local := filepath.Join(t.TempDir(), "scripts")
	writeFile(t, filepath.Join(local, "launch.sh"), "#!/bin/sh\n", 0755)
	if err := os.Chmod(filepath.Join(local, "launch.sh"), 0755); err != nil {
		t.Fatal(err)
	}

	dest, err := folder.UploadDir(ctx, local, UploadOptions{Dest: "custom"})
	if err != nil {
		t.Fatalf("UploadDir failed: %v", err)
	}
	if dest != filepath.Join(folder.Root(), "custom") {
		t.Errorf("UploadDir = %q; want custom destination", dest)
	}
	info, err := os.Stat(filepath.Join(dest, "launch.sh"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0755 {
		t.Errorf("uploaded mode = %o; want 755", info.Mode().Perm())
	}
}

func TestLocalFolderDownloadDir(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	folder := NewLocalFolder(root)

	writeFile(t, filepath.Join(root, "out", "sim1", "result.txt"), "42", 0644)

	local := t.TempDir()
	if err := folder.DownloadDir(ctx, "out/sim1", local, true); err != nil {
		t.Fatalf("DownloadDir failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(local, "result.txt"))
	if err != nil || string(data) != "42" {
		t.Errorf("downloaded content = %q, %v", data, err)
	}

	err = folder.DownloadDir(ctx, "out/missing", t.TempDir(), false)
	if !IsRemotePathNotFound(err) {
		t.Errorf("DownloadDir(missing) error = %v; want remote path not found", err)
	}
}

func TestLocalFolderExecute(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	folder := NewLocalFolder(root)

	writeFile(t, filepath.Join(root, "s", "launch.sh"), "echo 101\necho\necho ' 102 '\n", 0755)

	out, err := folder.Execute(ctx, "s/launch.sh")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	data, err := io.ReadAll(out)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "101\n\n 102 \n" {
		t.Errorf("Execute output = %q", got)
	}

	writeFile(t, filepath.Join(root, "s", "fail.sh"), "echo boom >&2\nexit 3\n", 0755)
	_, err = folder.Execute(ctx, "s/fail.sh")
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("Execute(fail.sh) error = %v; want stderr in message", err)
	}
}

func TestLocalFolderReadAndDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	folder := NewLocalFolder(root)

	if _, err := folder.ReadFile(ctx, "jobs.txt"); !IsRemotePathNotFound(err) {
		t.Errorf("ReadFile(missing) error = %v; want remote path not found", err)
	}

	writeFile(t, filepath.Join(root, "basedir", "jobs.txt"), "1: succeed\n", 0644)
	data, err := folder.ReadFile(ctx, "basedir/jobs.txt")
	if err != nil || string(data) != "1: succeed\n" {
		t.Errorf("ReadFile = %q, %v", data, err)
	}

	if err := folder.DeleteRemote(ctx, []string{"basedir", "never-existed"}); err != nil {
		t.Fatalf("DeleteRemote failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "basedir")); !os.IsNotExist(err) {
		t.Errorf("basedir still exists after DeleteRemote")
	}
}

