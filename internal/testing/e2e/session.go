// Package e2e drives the built binary inside a pseudo terminal.
package e2e

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
)

// Config describes one process started under a pty
type Config struct {
	Command string
	Args    []string
	WorkDir string
	// Env is appended to the current environment
	Env []string

	Rows uint16
	Cols uint16

	// Timeout bounds the whole session
	Timeout time.Duration
}

// Session is a running process attached to a pty
type Session struct {
	cmd    *exec.Cmd
	ptmx   *os.File
	cancel context.CancelFunc

	mu     sync.RWMutex
	output bytes.Buffer

	done    chan struct{}
	waitErr error
}

// Start runs the configured command under a pty
func Start(config Config) (*Session, error) {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Rows == 0 {
		config.Rows = 24
	}
	if config.Cols == 0 {
		config.Cols = 100
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	cmd := exec.CommandContext(ctx, config.Command, config.Args...)
	cmd.Dir = config.WorkDir
	cmd.Env = append(os.Environ(), config.Env...)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: config.Rows, Cols: config.Cols})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start pty: %w", err)
	}

	s := &Session{
		cmd:    cmd,
		ptmx:   ptmx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.capture()
	go func() {
		s.waitErr = cmd.Wait()
		close(s.done)
	}()
	return s, nil
}

func (s *Session) capture() {
	buf := make([]byte, 4096)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.output.Write(buf[:n])
			s.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// Send writes keys to the process
func (s *Session) Send(keys string) error {
	if !s.Running() {
		return errors.New("session not running")
	}
	_, err := s.ptmx.Write([]byte(keys))
	return err
}

// Output returns everything the process wrote so far
func (s *Session) Output() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.output.String()
}

// Screen returns the last frame drawn, without escape codes
func (s *Session) Screen() string {
	return LastFrame(s.Output())
}

// WaitForText waits until text appears in the output with escape codes removed
func (s *Session) WaitForText(text string, timeout time.Duration) error {
	return s.waitFor(timeout, func() bool {
		return strings.Contains(StripANSI(s.Output()), text)
	}, "text "+text)
}

// WaitForScreen waits until the last frame contains text
func (s *Session) WaitForScreen(text string, timeout time.Duration) error {
	return s.waitFor(timeout, func() bool {
		return strings.Contains(s.Screen(), text)
	}, "screen text "+text)
}

func (s *Session) waitFor(timeout time.Duration, cond func() bool, what string) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("timeout waiting for %s; screen:\n%s", what, s.Screen())
}

// Running reports whether the process is still alive
func (s *Session) Running() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Wait blocks until the process exits or timeout passes
func (s *Session) Wait(timeout time.Duration) error {
	select {
	case <-s.done:
		return s.waitErr
	case <-time.After(timeout):
		return fmt.Errorf("process still running after %s", timeout)
	}
}

// Stop asks the process to quit with q and kills it if it does not
func (s *Session) Stop() error {
	if s.Running() {
		_ = s.Send("q")
	}
	err := s.Wait(2 * time.Second)
	s.ForceStop()
	return err
}

// ForceStop kills the process and releases the pty
func (s *Session) ForceStop() {
	s.cancel()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	<-s.done
	s.ptmx.Close()
}
