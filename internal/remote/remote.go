// Package remote moves script directories to the machine running the jobs,
// executes them there and brings the outputs back.
package remote

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"

	"github.com/Justype/simmaker/internal/config"
)

// UploadOptions controls where and how a local directory is uploaded
type UploadOptions struct {
	Dest           string // Remote destination; defaults to <root>/<basename of local dir>
	DeleteExisting bool   // Remove remote files absent from the local directory
	EmptyDest      bool   // Empty the destination before copying
}

// destination resolves the remote directory an upload lands in.
func destination(root, local string, opts UploadOptions) string {
	if opts.Dest != "" {
		if path.IsAbs(opts.Dest) {
			return opts.Dest
		}
		return path.Join(root, opts.Dest)
	}
	return path.Join(root, filepath.Base(local))
}

// Folder is a working directory on the machine running the jobs.
// Relative remote paths are resolved against Root().
type Folder interface {
	Root() string
	Open(ctx context.Context) error
	Close() error
	UploadDir(ctx context.Context, local string, opts UploadOptions) (string, error)
	DownloadDir(ctx context.Context, remotePath, local string, deleteExisting bool) error
	Execute(ctx context.Context, remotePath string) (io.Reader, error)
	DeleteRemote(ctx context.Context, paths []string) error
	ReadFile(ctx context.Context, remotePath string) ([]byte, error)
}

// FromConfig builds the remote folder described by the configuration.
// The returned folder is not opened yet.
func FromConfig(cfg config.RemoteConfig) (Folder, error) {
	switch cfg.Type {
	case config.RemoteLocal, "":
		return NewLocalFolder(cfg.Root), nil
	case config.RemoteSSH:
		return NewSSHFolder(SSHOptions{
			Host:       cfg.Host,
			Port:       cfg.Port,
			User:       cfg.User,
			KeyFile:    cfg.KeyFile,
			KnownHosts: cfg.KnownHosts,
			Root:       cfg.Root,
			Timeout:    cfg.Timeout,
		}), nil
	}
	return nil, fmt.Errorf("unknown remote type %q", cfg.Type)
}
