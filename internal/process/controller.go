// Package process owns the dedicated server's operating system process:
// building its launch arguments, starting it, and stopping it gracefully.
package process

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/asa-tools/arkmgr/internal/validate"
)

// stopGrace is how long a graceful stop waits before the process is
// killed outright.
const stopGrace = 30 * time.Second

var (
	ErrAlreadyRunning = errors.New("process: server already running")
	ErrNotRunning     = errors.New("process: server not running")
	ErrNotInstalled   = errors.New("process: server executable not found")
)

// LaunchOptions are the operator-tunable parts of the server command line.
type LaunchOptions struct {
	Map        string
	GamePort   int
	QueryPort  int
	MaxPlayers int
}

// DefaultLaunchOptions mirror the stock ARK island setup.
func DefaultLaunchOptions() LaunchOptions {
	return LaunchOptions{Map: "TheIsland_WP", GamePort: 7777, QueryPort: 27015, MaxPlayers: 10}
}

// Controller manages at most one running server process.
type Controller struct {
	exePath   string
	serverDir string

	mu        sync.Mutex
	cmd       *exec.Cmd
	startedAt time.Time
	done      chan struct{}
}

// New returns a controller for the server binary at exePath, run with
// serverDir as its working directory.
func New(exePath, serverDir string) *Controller {
	return &Controller{exePath: exePath, serverDir: serverDir}
}

// Installed reports whether the server binary exists.
func (c *Controller) Installed() bool {
	_, err := os.Stat(c.exePath)
	return err == nil
}

// BuildArgs assembles the server command line from opts. Map names are
// sanitized and ports validated before they reach the argument vector.
func (c *Controller) BuildArgs(opts LaunchOptions) ([]string, error) {
	mapName := validate.Sanitize(opts.Map, validate.MaxServerNameLength)
	if mapName == "" {
		return nil, fmt.Errorf("process: empty map name")
	}
	if err := validate.Port(opts.GamePort); err != nil {
		return nil, fmt.Errorf("process: game port: %w", err)
	}
	if err := validate.Port(opts.QueryPort); err != nil {
		return nil, fmt.Errorf("process: query port: %w", err)
	}

	return []string{
		mapName + "?listen",
		fmt.Sprintf("-Port=%d", opts.GamePort),
		fmt.Sprintf("-QueryPort=%d", opts.QueryPort),
		fmt.Sprintf("-MaxPlayers=%d", opts.MaxPlayers),
		fmt.Sprintf("-WinLiveMaxPlayers=%d", opts.MaxPlayers),
		"-server",
		"-log",
	}, nil
}

// Start launches the server. It fails if a managed instance is already
// running or the binary is missing.
func (c *Controller) Start(opts LaunchOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.runningLocked() {
		return ErrAlreadyRunning
	}
	if !c.Installed() {
		return fmt.Errorf("%w: %s", ErrNotInstalled, c.exePath)
	}

	args, err := c.BuildArgs(opts)
	if err != nil {
		return err
	}

	cmd := exec.Command(c.exePath, args...)
	cmd.Dir = c.serverDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("process: start server: %w", err)
	}

	done := make(chan struct{})
	go func() {
		cmd.Wait()
		close(done)
	}()

	c.cmd = cmd
	c.done = done
	c.startedAt = time.Now()
	log.Printf("process: server started, pid %d", cmd.Process.Pid)
	return nil
}

// Stop asks the server to exit and kills it after the grace period.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.runningLocked() {
		return ErrNotRunning
	}

	// SIGTERM first so the server can flush its save; Windows has no
	// SIGTERM delivery, in which case we fall through to Kill.
	if err := c.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		c.cmd.Process.Kill()
	}

	select {
	case <-c.done:
	case <-time.After(stopGrace):
		log.Printf("process: graceful stop timed out, killing pid %d", c.cmd.Process.Pid)
		c.cmd.Process.Kill()
		<-c.done
	}

	c.cmd = nil
	c.done = nil
	return nil
}

// Running reports whether the managed process is alive.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runningLocked()
}

func (c *Controller) runningLocked() bool {
	if c.cmd == nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// PID returns the process ID of the running server, or 0.
func (c *Controller) PID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.runningLocked() {
		return 0
	}
	return c.cmd.Process.Pid
}

// Uptime returns how long the server has been running, or 0.
func (c *Controller) Uptime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.runningLocked() {
		return 0
	}
	return time.Since(c.startedAt)
}
