package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Justype/simmaker/internal/utils"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHOptions describes how to reach the remote machine
type SSHOptions struct {
	Host       string
	Port       int
	User       string
	KeyFile    string // Private key; empty = ~/.ssh/id_ed25519 then ~/.ssh/id_rsa
	KnownHosts string // known_hosts file; empty = host key not verified
	Root       string // Working root; relative roots are below the remote home
	Timeout    time.Duration
}

// SSHFolder is a remote folder reached over SSH, files moving through SFTP.
type SSHFolder struct {
	opts SSHOptions
	root string

	client *ssh.Client
	sftp   *sftp.Client
}

// NewSSHFolder creates an SSH folder. Nothing is dialed before Open.
func NewSSHFolder(opts SSHOptions) *SSHFolder {
	if opts.Port == 0 {
		opts.Port = 22
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &SSHFolder{opts: opts, root: opts.Root}
}

func (f *SSHFolder) Root() string {
	return f.root
}

func (f *SSHFolder) resolve(p string) string {
	if path.IsAbs(p) {
		return p
	}
	return path.Join(f.root, p)
}

func (f *SSHFolder) clientConfig() (*ssh.ClientConfig, error) {
	keyFiles := []string{f.opts.KeyFile}
	if f.opts.KeyFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		keyFiles = []string{filepath.Join(home, ".ssh", "id_ed25519"), filepath.Join(home, ".ssh", "id_rsa")}
	}

	var signers []ssh.Signer
	for _, keyFile := range keyFiles {
		pem, err := os.ReadFile(keyFile)
		if err != nil {
			if os.IsNotExist(err) && f.opts.KeyFile == "" {
				continue
			}
			return nil, fmt.Errorf("failed to read key %s: %w", keyFile, err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("failed to parse key %s: %w", keyFile, err)
		}
		signers = append(signers, signer)
	}
	if len(signers) == 0 {
		return nil, fmt.Errorf("no SSH private key found (set remote.key_file)")
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if f.opts.KnownHosts != "" {
		cb, err := knownhosts.New(f.opts.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts: %w", err)
		}
		hostKeyCallback = cb
	} else {
		utils.PrintDebug("Host key of %s is not verified (remote.known_hosts unset)", f.opts.Host)
	}

	user := f.opts.User
	if user == "" {
		user = os.Getenv("USER")
	}

	return &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signers...)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         f.opts.Timeout,
	}, nil
}

// Open dials the host, starts the SFTP subsystem and creates the root.
func (f *SSHFolder) Open(ctx context.Context) error {
	if f.client != nil {
		return nil
	}

	cfg, err := f.clientConfig()
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(f.opts.Host, strconv.Itoa(f.opts.Port))
	dialer := net.Dialer{Timeout: f.opts.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return fmt.Errorf("SSH handshake with %s failed: %w", addr, err)
	}
	client := ssh.NewClient(c, chans, reqs)

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		client.Close()
		return fmt.Errorf("failed to start SFTP on %s: %w", addr, err)
	}

	if !path.IsAbs(f.root) {
		home, err := sftpClient.Getwd()
		if err != nil {
			sftpClient.Close()
			client.Close()
			return fmt.Errorf("failed to get remote home: %w", err)
		}
		f.root = path.Join(home, f.root)
	}
	if err := sftpClient.MkdirAll(f.root); err != nil {
		sftpClient.Close()
		client.Close()
		return fmt.Errorf("failed to create remote root %s: %w", f.root, err)
	}

	f.client = client
	f.sftp = sftpClient
	return nil
}

// Close ends the SFTP and SSH sessions; closing a closed folder does nothing.
func (f *SSHFolder) Close() error {
	if f.client == nil {
		return nil
	}
	var errs []error
	if err := f.sftp.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := f.client.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		errs = append(errs, err)
	}
	f.sftp = nil
	f.client = nil
	return errors.Join(errs...)
}

// UploadDir copies local into the remote root and returns the destination.
func (f *SSHFolder) UploadDir(ctx context.Context, local string, opts UploadOptions) (string, error) {
	if f.sftp == nil {
		return "", ErrNotOpen
	}
	dest := destination(f.root, local, opts)

	if opts.DeleteExisting || opts.EmptyDest {
		if err := f.removeAll(dest); err != nil && !isNotExist(err) {
			return "", fmt.Errorf("failed to clear %s: %w", dest, err)
		}
	}
	if err := f.sftp.MkdirAll(dest); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dest, err)
	}

	err := filepath.WalkDir(local, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, err := filepath.Rel(local, p)
		if err != nil {
			return err
		}
		target := path.Join(dest, filepath.ToSlash(rel))

		info, err := d.Info()
		if err != nil {
			return err
		}
		if d.IsDir() {
			return f.sftp.MkdirAll(target)
		}
		return f.uploadFile(p, target, info.Mode().Perm())
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", local, err)
	}
	return dest, nil
}

func (f *SSHFolder) uploadFile(local, target string, perm os.FileMode) error {
	in, err := os.Open(local)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := f.sftp.Create(target)
	if err != nil {
		return err
	}
	if _, err := out.ReadFrom(in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return f.sftp.Chmod(target, perm)
}

// DownloadDir copies a remote directory into local.
func (f *SSHFolder) DownloadDir(ctx context.Context, remotePath, local string, deleteExisting bool) error {
	if f.sftp == nil {
		return ErrNotOpen
	}
	src := f.resolve(remotePath)

	info, err := f.sftp.Stat(src)
	if err != nil {
		if isNotExist(err) {
			return NewRemotePathNotFoundError(src)
		}
		return err
	}
	if !info.IsDir() {
		return NewRemotePathNotFoundError(src)
	}

	if deleteExisting {
		if err := utils.EmptyDir(local); err != nil {
			return err
		}
	}

	walker := f.sftp.Walk(src)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(walker.Path(), src), "/")
		target := filepath.Join(local, filepath.FromSlash(rel))

		if walker.Stat().IsDir() {
			if err := os.MkdirAll(target, utils.PermDir); err != nil {
				return err
			}
			continue
		}
		if err := f.downloadFile(walker.Path(), target, walker.Stat().Mode().Perm()); err != nil {
			return fmt.Errorf("failed to download %s: %w", walker.Path(), err)
		}
	}
	return nil
}

func (f *SSHFolder) downloadFile(remotePath, target string, perm os.FileMode) error {
	in, err := f.sftp.Open(remotePath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := in.WriteTo(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Execute runs the script with /bin/sh from its directory and returns its standard output.
// Cancelling ctx closes the session.
func (f *SSHFolder) Execute(ctx context.Context, remotePath string) (io.Reader, error) {
	if f.client == nil {
		return nil, ErrNotOpen
	}
	script := f.resolve(remotePath)

	session, err := f.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to open SSH session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	command := fmt.Sprintf("cd %s && /bin/sh %s", utils.ShellQuote(path.Dir(script)), utils.ShellQuote(script))
	utils.PrintDebug("Executing %s on %s", utils.StyleCommand(command), f.opts.Host)

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		session.Close()
		return nil, ctx.Err()
	case err := <-done:
		if err != nil {
			return nil, &ExecutionError{Path: script, Stderr: stderr.String(), Err: err}
		}
	}
	return &stdout, nil
}

// DeleteRemote removes every path; missing paths are ignored.
func (f *SSHFolder) DeleteRemote(ctx context.Context, paths []string) error {
	if f.sftp == nil {
		return ErrNotOpen
	}
	for _, p := range paths {
		if err := f.removeAll(f.resolve(p)); err != nil && !isNotExist(err) {
			return fmt.Errorf("failed to delete %s: %w", p, err)
		}
	}
	return nil
}

func (f *SSHFolder) ReadFile(ctx context.Context, remotePath string) ([]byte, error) {
	if f.sftp == nil {
		return nil, ErrNotOpen
	}
	p := f.resolve(remotePath)

	file, err := f.sftp.Open(p)
	if err != nil {
		if isNotExist(err) {
			return nil, NewRemotePathNotFoundError(p)
		}
		return nil, err
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// removeAll deletes a remote file or directory tree, children first.
func (f *SSHFolder) removeAll(p string) error {
	info, err := f.sftp.Lstat(p)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return f.sftp.Remove(p)
	}

	entries, err := f.sftp.ReadDir(p)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := f.removeAll(path.Join(p, entry.Name())); err != nil {
			return err
		}
	}
	return f.sftp.RemoveDirectory(p)
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, fs.ErrNotExist)
}
