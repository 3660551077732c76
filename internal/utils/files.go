package utils

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Standard default permissions
// File: u=rw, g=rw, o=r
const PermFile os.FileMode = 0664

// Dir:  u=rwx, g=rwx, o=rx (Requires +x to traverse)
const PermDir os.FileMode = 0775

// PermExecAll is the u+x,g+x,o+x mask.
const PermExecAll os.FileMode = 0111

// MakeExecutable adds the execute bit for user, group and others to a file.
// Existing permission bits are kept.
func MakeExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("could not stat path %s: %w", path, err)
	}

	mode := info.Mode()
	if mode&PermExecAll == PermExecAll {
		return nil
	}

	PrintDebug("Marking %s as executable [%v]", StylePath(path), mode|PermExecAll)
	if err := os.Chmod(path, mode|PermExecAll); err != nil {
		return fmt.Errorf("failed to chmod file %s: %w", path, err)
	}
	return nil
}

// --- Extension Checks (String-based) ---

// IsYaml checks if the path has a YAML extension (.yaml, .yml).
func IsYaml(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// --- Filesystem Checks (OS-based) ---

// FileExists checks if a file exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// DirExists checks if a path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && info.IsDir()
}

// EnsureDir checks if a directory exists, and creates it if it doesn't.
func EnsureDir(path string) error {
	if DirExists(path) {
		return nil
	}
	return os.MkdirAll(path, PermDir)
}

// IsDirEmpty reports whether a directory has no entries.
// A missing directory counts as empty.
func IsDirEmpty(path string) bool {
	entries, err := os.ReadDir(path)
	if err != nil {
		return true
	}
	return len(entries) == 0
}

// EmptyDir removes every entry of a directory but keeps the directory itself.
func EmptyDir(path string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return EnsureDir(path)
		}
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(path, entry.Name())); err != nil {
			return fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// CopyDir recursively copies src into dst, creating dst when needed.
// File modes are preserved; symlinks are recreated, not followed.
func CopyDir(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("could not stat path %s: %w", src, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", src)
	}

	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		entryInfo, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			return os.MkdirAll(target, entryInfo.Mode().Perm()|0700)
		case entryInfo.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(p)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		default:
			return CopyFile(p, target, entryInfo.Mode().Perm())
		}
	})
}

// CopyFile copies a single regular file, truncating dst.
func CopyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	// OpenFile honours the umask; restore the source bits explicitly.
	return os.Chmod(dst, perm)
}

// MoveDir renames src to dst, falling back to copy-then-remove across devices.
func MoveDir(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), PermDir); err != nil {
		return err
	}

	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return err
	}

	PrintDebug("Rename of %s failed (%v), copying instead", StylePath(src), err)
	if err := CopyDir(src, dst); err != nil {
		return err
	}
	return os.RemoveAll(src)
}
