package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/Justype/simmaker/internal/utils"
)

// LocalFolder is a remote folder on a filesystem shared with the compute nodes.
// Scripts run with /bin/sh on the current machine.
type LocalFolder struct {
	root string
}

// NewLocalFolder creates a local folder rooted at root.
func NewLocalFolder(root string) *LocalFolder {
	return &LocalFolder{root: root}
}

func (f *LocalFolder) Root() string {
	return f.root
}

func (f *LocalFolder) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(f.root, p)
}

// Open creates the root directory if needed.
func (f *LocalFolder) Open(ctx context.Context) error {
	if err := utils.EnsureDir(f.root); err != nil {
		return fmt.Errorf("failed to create remote root %s: %w", f.root, err)
	}
	return nil
}

func (f *LocalFolder) Close() error {
	return nil
}

// UploadDir copies local into the root and returns the destination.
func (f *LocalFolder) UploadDir(ctx context.Context, local string, opts UploadOptions) (string, error) {
	dest := destination(f.root, local, opts)

	if opts.DeleteExisting {
		if err := os.RemoveAll(dest); err != nil {
			return "", fmt.Errorf("failed to clear %s: %w", dest, err)
		}
	} else if opts.EmptyDest {
		if err := utils.EmptyDir(dest); err != nil {
			return "", fmt.Errorf("failed to empty %s: %w", dest, err)
		}
	}

	if err := utils.EnsureDir(dest); err != nil {
		return "", err
	}
	if err := utils.CopyDir(local, dest); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", local, err)
	}
	return dest, nil
}

// DownloadDir copies a remote directory into local.
func (f *LocalFolder) DownloadDir(ctx context.Context, remotePath, local string, deleteExisting bool) error {
	src := f.resolve(remotePath)
	if !utils.DirExists(src) {
		return NewRemotePathNotFoundError(src)
	}

	if deleteExisting {
		if err := utils.EmptyDir(local); err != nil {
			return err
		}
	}
	if err := utils.EnsureDir(local); err != nil {
		return err
	}
	if err := utils.CopyDir(src, local); err != nil {
		return fmt.Errorf("failed to download %s: %w", src, err)
	}
	return nil
}

// Execute runs the script from its directory and returns its standard output.
func (f *LocalFolder) Execute(ctx context.Context, remotePath string) (io.Reader, error) {
	script := f.resolve(remotePath)
	if !utils.FileExists(script) {
		return nil, NewRemotePathNotFoundError(script)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "/bin/sh", script)
	cmd.Dir = filepath.Dir(script)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	utils.PrintDebug("Executing %s", utils.StyleCommand(cmd.String()))
	if err := cmd.Run(); err != nil {
		return nil, &ExecutionError{Path: script, Stderr: stderr.String(), Err: err}
	}
	return &stdout, nil
}

// DeleteRemote removes every path; missing paths are ignored.
func (f *LocalFolder) DeleteRemote(ctx context.Context, paths []string) error {
	for _, p := range paths {
		if err := os.RemoveAll(f.resolve(p)); err != nil {
			return fmt.Errorf("failed to delete %s: %w", p, err)
		}
	}
	return nil
}

func (f *LocalFolder) ReadFile(ctx context.Context, remotePath string) ([]byte, error) {
	p := f.resolve(remotePath)
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewRemotePathNotFoundError(p)
		}
		return nil, err
	}
	return data, nil
}
