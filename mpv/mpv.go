// Package mpv drives an external mpv process over JSON-IPC and exposes it as a
// player.Surface and player.FullscreenHost.
package mpv

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/streamctl/streamctl/constant"
	"github.com/streamctl/streamctl/log"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	quitTimeout       = 3 * time.Second
)

// Config describes how to launch mpv.
type Config struct {
	Binary    string
	ExtraArgs []string

	// SocketDir is where the IPC socket is created.
	SocketDir string

	// Volume is the initial volume in [0, 1].
	Volume float64
	Title  string
}

// Process is an idle mpv instance waiting for loadfile commands.
type Process struct {
	*Client

	cmd    *exec.Cmd
	exited chan struct{}

	closeOnce sync.Once
}

// Launch starts mpv idle with an IPC server and waits until the socket accepts connections.
func Launch(ctx context.Context, cfg Config) (*Process, error) {
	binary := cfg.Binary
	if binary == "" {
		binary = "mpv"
	}

	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, fmt.Errorf("generate socket name: %w", err)
	}
	socketPath := filepath.Join(cfg.SocketDir, fmt.Sprintf("%s-%x.sock", constant.App, randomBytes))

	title := sanitizeTitle(cfg.Title)
	if title == "" {
		title = constant.App
	}

	// Rendering options are left to the user's mpv.conf.
	args := []string{
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", socketPath),
		fmt.Sprintf("--title=%s", title),
		fmt.Sprintf("--volume=%d", int(cfg.Volume*100+0.5)),
		"--force-window=yes",
		"--idle=yes",
		"--keep-open=yes",
	}
	args = append(args, cfg.ExtraArgs...)

	cmd := exec.Command(binary, args...)
	cmd.SysProcAttr = sysProcAttr()
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}
	log.Infof("started %s (pid %d) with socket %s", binary, cmd.Process.Pid, socketPath)

	p := &Process{
		Client: NewClient(socketPath),
		cmd:    cmd,
		exited: make(chan struct{}),
	}

	// reap the process so it never lingers as a zombie
	go func() {
		_ = cmd.Wait()
		close(p.exited)
	}()

	if err := p.waitForSocket(ctx); err != nil {
		select {
		case <-p.exited:
		default:
			log.Warnf("killing mpv: socket never became ready")
			_ = killProcess(cmd)
		}
		<-p.exited
		_ = os.Remove(socketPath)
		return nil, fmt.Errorf("mpv socket not ready: %w", err)
	}

	return p, nil
}

// Wait returns a channel that is closed when the mpv process exits.
func (p *Process) Wait() <-chan struct{} {
	return p.exited
}

func (p *Process) waitForSocket(ctx context.Context) error {
	for i := 0; i < socketWaitRetries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.exited:
			return errors.New("mpv exited before socket was ready")
		case <-time.After(socketWaitDelay):
		}

		conn, err := net.Dial("unix", p.Socket())
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", p.Socket(), socketWaitRetries)
}

// Close asks mpv to quit, kills it if it does not, and removes the socket.
func (p *Process) Close() error {
	p.closeOnce.Do(func() {
		if _, err := p.Command("quit"); err != nil {
			log.Debugf("mpv quit: %v", err)
			_ = interruptProcess(p.cmd)
		}

		select {
		case <-p.exited:
		case <-time.After(quitTimeout):
			_ = killProcess(p.cmd)
			<-p.exited
		}

		_ = os.Remove(p.Socket())
	})
	return nil
}

// sanitizeMediaTarget validates that a reference is safe to hand to loadfile.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", errors.New("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", errors.New("invalid control characters in URL")
	}

	// mpv would read it as an option
	if strings.HasPrefix(l, "-") {
		return "", errors.New("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https", "file":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}

func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
