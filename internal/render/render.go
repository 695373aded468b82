// Package render launches and supervises manimgl renders of a scene
// script. The runner is fully decoupled from the editing core: it shares
// no state with a session and communicates only through start/stop calls,
// a status, and a line stream of captured output.
package render

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// Status of a render process.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusFinished Status = "finished"
	StatusStopped  Status = "stopped"
	StatusError    Status = "error"
)

// Mode selects how manimgl runs.
type Mode string

const (
	// ModeAutoPlay renders and loops without an interactive preview window.
	ModeAutoPlay Mode = "auto-play"
	// ModePreviewLoop opens the interactive preview with auto-loop.
	ModePreviewLoop Mode = "preview-loop"
	// ModeSaveOnly writes the video file with no preview.
	ModeSaveOnly Mode = "save-only"
)

// ParseMode resolves a mode name from config or flags.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAutoPlay, ModePreviewLoop, ModeSaveOnly:
		return Mode(s), nil
	}
	return "", fmt.Errorf("render: unknown mode %q (want auto-play, preview-loop, or save-only)", s)
}

// Options configure one render.
type Options struct {
	Scene   string // scene class name, default "Scene"
	Quality string // low, medium, high
	Mode    Mode
}

// Runner starts manimgl processes.
type Runner struct {
	ManimPath string
	Verbose   bool
}

// buildArgs constructs the manimgl CLI arguments for a render.
func buildArgs(script string, o Options) []string {
	scene := o.Scene
	if scene == "" {
		scene = "Scene"
	}
	quality := o.Quality
	if quality == "" {
		quality = "low"
	}

	args := []string{script, scene, "-" + quality[:1]}

	switch o.Mode {
	case ModeAutoPlay:
		args = append(args, "-l", "-p")
	case ModePreviewLoop:
		args = append(args, "-l")
	case ModeSaveOnly:
		args = append(args, "--write_to_movie", "-np")
	}
	return args
}

// Validate checks that the manimgl binary is reachable.
func (r *Runner) Validate() error {
	cmd := exec.Command(r.ManimPath, "--version")
	out, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("render: manimgl not found at %q: %w", r.ManimPath, err)
	}
	if r.Verbose {
		fmt.Fprintf(os.Stderr, "[render] manimgl version: %s", string(out))
	}
	return nil
}

// Start launches manimgl on the script and returns a handle for streaming
// output and stopping the process. The subprocess runs in its own session
// so a Stop can signal the whole process group.
func (r *Runner) Start(ctx context.Context, script string, o Options) (*Process, error) {
	args := buildArgs(script, o)

	cmd := exec.CommandContext(ctx, r.ManimPath, args...)
	cmd.SysProcAttr = sessionAttr()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("render: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("render: stderr pipe: %w", err)
	}

	if r.Verbose {
		fmt.Fprintf(os.Stderr, "[render] running: %s %s\n", r.ManimPath, strings.Join(args, " "))
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("render: start manimgl: %w", err)
	}

	p := &Process{
		cmd:    cmd,
		output: make(chan string, 64),
		done:   make(chan struct{}),
		status: StatusRunning,
	}

	var readers sync.WaitGroup
	readers.Add(2)
	go p.stream(stdout, &readers)
	go p.stream(stderr, &readers)

	go func() {
		readers.Wait()
		close(p.output)
		err := cmd.Wait()

		p.mu.Lock()
		switch {
		case p.status == StatusStopping:
			p.status = StatusStopped
		case err != nil:
			p.status = StatusError
			p.err = err
		default:
			p.status = StatusFinished
		}
		p.mu.Unlock()
		close(p.done)
	}()

	return p, nil
}

// Process is one running (or finished) render.
type Process struct {
	cmd    *exec.Cmd
	output chan string
	done   chan struct{}

	mu     sync.Mutex
	status Status
	err    error
}

// Output streams captured stdout and stderr lines. The channel closes when
// the process exits.
func (p *Process) Output() <-chan string { return p.output }

// Done is closed once the process has exited and its status is final.
func (p *Process) Done() <-chan struct{} { return p.done }

// Status returns the current process status.
func (p *Process) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Err returns the exit error for StatusError processes.
func (p *Process) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Wait blocks until the process exits and returns its final error, if any.
func (p *Process) Wait() error {
	<-p.done
	return p.Err()
}

// Stop signals the render's process group to terminate. The status moves
// to stopping immediately and to stopped once the process exits.
func (p *Process) Stop() error {
	p.mu.Lock()
	if p.status != StatusRunning {
		p.mu.Unlock()
		return nil
	}
	p.status = StatusStopping
	p.mu.Unlock()

	if err := terminate(p.cmd.Process); err != nil {
		return fmt.Errorf("render: stop: %w", err)
	}
	return nil
}

func (p *Process) stream(r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		p.output <- sc.Text()
	}
}
