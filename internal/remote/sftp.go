// Package remote fetches context files over SFTP for runs that draw on
// documents living on another host.
package remote

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"quill/internal/logging"
)

// Source is one parsed sftp://user@host[:port]/path/glob source.
type Source struct {
	User string
	Host string
	Port string
	Path string
}

// ParseSource parses an sftp URL. The path may contain glob metacharacters,
// expanded on the remote side.
func ParseSource(raw string) (*Source, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "sftp" {
		return nil, fmt.Errorf("invalid sftp source %q", raw)
	}
	if u.Host == "" || u.Path == "" {
		return nil, fmt.Errorf("sftp source %q needs a host and a path", raw)
	}
	src := &Source{
		User: u.User.Username(),
		Host: u.Hostname(),
		Port: u.Port(),
		Path: u.Path,
	}
	if src.User == "" {
		src.User = os.Getenv("USER")
	}
	if src.Port == "" {
		src.Port = "22"
	}
	return src, nil
}

// Fetch connects to the source host, expands the path glob remotely, and
// returns file contents keyed by remote path. Files over maxSize are
// skipped.
func Fetch(ctx context.Context, src *Source, maxSize int64) (map[string]string, error) {
	sshConfig, err := buildSSHConfig(src.User)
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(src.Host, src.Port)
	dialer := net.Dialer{Timeout: sshConfig.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to reach %s: %w", addr, err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, sshConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s failed: %w", addr, err)
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)
	defer sshClient.Close()

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		return nil, fmt.Errorf("failed to open sftp session: %w", err)
	}
	defer client.Close()

	matches, err := client.Glob(src.Path)
	if err != nil {
		return nil, fmt.Errorf("bad remote pattern %q: %w", src.Path, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("remote pattern %q matched no files", src.Path)
	}

	files := make(map[string]string, len(matches))
	for _, path := range matches {
		info, err := client.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat remote %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if maxSize > 0 && info.Size() > maxSize {
			logging.Warn("skipping oversized remote file", "path", path, "size", info.Size())
			continue
		}
		f, err := client.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open remote %s: %w", path, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read remote %s: %w", path, err)
		}
		files[path] = string(data)
	}
	return files, nil
}

// buildSSHConfig assembles auth methods: the SSH agent when one is
// running, then the default key files.
func buildSSHConfig(user string) (*ssh.ClientConfig, error) {
	var authMethods []ssh.AuthMethod

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			authMethods = append(authMethods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		for _, name := range []string{"id_ed25519", "id_rsa"} {
			key, err := os.ReadFile(filepath.Join(home, ".ssh", name))
			if err != nil {
				continue
			}
			if signer, err := ssh.ParsePrivateKey(key); err == nil {
				authMethods = append(authMethods, ssh.PublicKeys(signer))
			}
		}
	}

	if len(authMethods) == 0 {
		return nil, fmt.Errorf("no ssh auth available: start an agent or provide ~/.ssh/id_ed25519")
	}

	return &ssh.ClientConfig{
		User:            user,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         15 * time.Second,
	}, nil
}
