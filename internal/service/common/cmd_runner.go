package common

import (
	"bufio"
	"context"
	"os/exec"
	"syscall"
	"time"
)

// Process represents a running external process
type Process interface {
	// Wait blocks until the process exits and returns its exit error, if any
	Wait() error
	// Terminate asks the process to stop gracefully (SIGTERM)
	Terminate() error
	// Kill stops the process forcefully
	Kill() error
	// Pid returns the OS process id, or 0 when not started
	Pid() int
}

// LineHandler receives one line of combined process output at a time
type LineHandler func(line string)

// CmdRunner is interface for executing external commands
type CmdRunner interface {
	// Run executes a command to completion and returns its combined output.
	// The command is killed when ctx is cancelled.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	// Start launches a command and streams its combined output line by line
	// to onLine (which may be nil). The returned Process must be waited on.
	// Cancellation is left to the caller via Terminate/Kill so workers can
	// shut processes down gracefully instead of hard-killing them.
	Start(ctx context.Context, onLine LineHandler, name string, args ...string) (Process, error)
}

// realCmdRunner implements CmdRunner using os/exec
type realCmdRunner struct{}

// NewCmdRunner creates a new CmdRunner
func NewCmdRunner() CmdRunner {
	return &realCmdRunner{}
}

// processWrapper wraps exec.Cmd to implement Process interface
type processWrapper struct {
	cmd     *exec.Cmd
	lines   chan struct{} // closed when the output pump finishes
	waitErr error
	waited  chan struct{}
}

func (p *processWrapper) Wait() error {
	<-p.lines
	<-p.waited
	return p.waitErr
}

func (p *processWrapper) Terminate() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Signal(syscall.SIGTERM)
}

func (p *processWrapper) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

func (p *processWrapper) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Run executes external command with given arguments
func (r *realCmdRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// Start starts external command and returns Process for management
func (r *realCmdRunner) Start(ctx context.Context, onLine LineHandler, name string, args ...string) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cmd := exec.Command(name, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &processWrapper{
		cmd:    cmd,
		lines:  make(chan struct{}),
		waited: make(chan struct{}),
	}

	go func() {
		defer close(p.lines)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			if onLine != nil {
				onLine(scanner.Text())
			}
		}
	}()

	go func() {
		defer close(p.waited)
		<-p.lines
		p.waitErr = cmd.Wait()
	}()

	return p, nil
}

// Shutdown terminates a process gracefully and escalates to Kill when it
// does not exit within the grace period.
func Shutdown(p Process, grace time.Duration) {
	if p == nil {
		return
	}
	_ = p.Terminate()
	done := make(chan struct{})
	go func() {
		_ = p.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		_ = p.Kill()
	}
}
