package tuitest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
)

const (
	defaultWidth   = 120
	defaultHeight  = 32
	defaultTimeout = 5 * time.Second
)

// Step represents a scripted user interaction that the harness will replay
// against the pseudo terminal. WaitFor, when set, blocks until that text has
// appeared in the (ANSI-stripped) output; Delay is applied afterwards.
type Step struct {
	WaitFor string
	Delay   time.Duration
	Input   []byte
}

// Config configures how the harness spawns and drives the CLI program.
type Config struct {
	Command          []string
	Dir              string
	Env              []string
	Width            int
	Height           int
	Steps            []Step
	Timeout          time.Duration
	AllowedExitCodes []int
	AllowInterrupt   bool
}

// Recording contains the raw terminal stream plus parsed frames.
type Recording struct {
	Raw      []byte
	Frames   []Frame
	Duration time.Duration
}

// Run starts the command inside a PTY, plays the scripted steps and returns
// everything the program drew.
func Run(ctx context.Context, cfg Config) (*Recording, error) {
	if len(cfg.Command) == 0 {
		return nil, errors.New("tuitest: command is required")
	}
	cfg = cfg.withDefaults()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, cfg.Command[0], cfg.Command[1:]...)
	cmd.Dir = cfg.Dir
	cmd.Env = buildEnv(cfg.Env)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(cfg.Height), Cols: uint16(cfg.Width)})
	if err != nil {
		return nil, fmt.Errorf("tuitest: start program: %w", err)
	}
	defer func() { _ = ptmx.Close() }()

	output := &syncBuffer{}
	drained := pump(ptmx, output)

	start := time.Now()
	if err := play(ctx, ptmx, output, cfg.Steps); err != nil {
		return nil, err
	}
	if err := awaitExit(ctx, cmd, cfg); err != nil {
		return nil, err
	}

	// Closing the PTY ends the reader once it has drained.
	_ = ptmx.Close()
	<-drained

	raw := output.Bytes()
	return &Recording{Raw: raw, Frames: parseFrames(raw), Duration: time.Since(start)}, nil
}

func (cfg Config) withDefaults() Config {
	if cfg.Width <= 0 {
		cfg.Width = defaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = defaultHeight
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return cfg
}

// pump copies PTY output into out, answering terminal queries on the way. The
// returned channel closes when the PTY is closed or the program exits.
func pump(ptmx io.ReadWriter, out io.Writer) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		responder := newTerminalResponder(ptmx)
		buf := make([]byte, 4096)
		for {
			n, err := ptmx.Read(buf)
			if n > 0 {
				responder.Process(buf[:n])
				_, _ = out.Write(buf[:n])
			}
			if err != nil {
				return
			}
		}
	}()
	return done
}

func play(ctx context.Context, ptmx io.Writer, output *syncBuffer, steps []Step) error {
	for i, step := range steps {
		if step.WaitFor != "" {
			if err := waitForText(ctx, output, step.WaitFor); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		}
		if step.Delay > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("tuitest: step %d: context cancelled: %w", i, ctx.Err())
			case <-time.After(step.Delay):
			}
		}
		if len(step.Input) == 0 {
			continue
		}
		if _, err := ptmx.Write(step.Input); err != nil {
			return fmt.Errorf("tuitest: step %d: write input: %w", i, err)
		}
	}
	return nil
}

func awaitExit(ctx context.Context, cmd *exec.Cmd, cfg Config) error {
	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		return fmt.Errorf("tuitest: timeout waiting for program exit: %w", ctx.Err())
	case err := <-exited:
		if err == nil || cfg.exitAllowed(err) {
			return nil
		}
		return fmt.Errorf("tuitest: program exited with error: %w", err)
	}
}

func (cfg Config) exitAllowed(err error) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && slices.Contains(cfg.AllowedExitCodes, exitErr.ExitCode()) {
		return true
	}
	return cfg.AllowInterrupt && strings.Contains(err.Error(), "signal: interrupt")
}

// syncBuffer lets the script poll output while the reader goroutine writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}

const pollInterval = 50 * time.Millisecond

func waitForText(ctx context.Context, output *syncBuffer, text string) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if strings.Contains(stripANSI(string(output.Bytes())), text) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("tuitest: waiting for %q: %w", text, ctx.Err())
		case <-ticker.C:
		}
	}
}

func buildEnv(extra []string) []string {
	env := os.Environ()
	env = append(env, extra...)
	termSet := false
	for _, entry := range env {
		if strings.HasPrefix(entry, "TERM=") {
			termSet = true
			break
		}
	}
	if !termSet {
		env = append(env, "TERM=xterm-256color")
	}
	return env
}

var (
	// KeyEnter sends a carriage return to the PTY.
	KeyEnter = []byte{'\r'}
	// KeyCtrlC requests the program to terminate.
	KeyCtrlC = []byte{3}
	// KeyEsc leaves the preview screen.
	KeyEsc = []byte{27}
	// KeyTab moves focus to the next form field.
	KeyTab = []byte{'\t'}
	// KeyCtrlS submits the upload form.
	KeyCtrlS = []byte{19}
)
