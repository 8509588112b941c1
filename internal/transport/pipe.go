package transport

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

type pipeChannel struct {
	r *os.File

	mu sync.Mutex
	w  *os.File

	closeOnce sync.Once
	closeErr  error
}

// OpenPipe allocates a pipe channel. The child's stdout and stderr are merged
// onto the write end; stdin is left unconnected.
func OpenPipe() (Channel, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("open pipe: %w", err)
	}
	return &pipeChannel{r: r, w: w}, nil
}

func (c *pipeChannel) Attach(cmd *exec.Cmd) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.w == nil {
		return fmt.Errorf("pipe channel already released")
	}
	cmd.Stdin = nil
	cmd.Stdout = c.w
	cmd.Stderr = c.w
	return nil
}

func (c *pipeChannel) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.w != nil {
		_ = c.w.Close()
		c.w = nil
	}
}

func (c *pipeChannel) Read(p []byte) (int, error) {
	return c.r.Read(p)
}

func (c *pipeChannel) CancelReads() {
	if err := c.r.SetReadDeadline(time.Now()); err != nil {
		// Synchronous pipe handles (Windows) take no deadline. Closing the
		// read end is the only way to unblock a pending read there; safe
		// because the drain goroutine is the descriptor's sole reader.
		_ = c.r.Close()
	}
}

func (c *pipeChannel) Close() error {
	c.closeOnce.Do(func() {
		c.Release()
		if err := c.r.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			c.closeErr = err
		}
	})
	return c.closeErr
}

func (c *pipeChannel) Mode() Mode {
	return ModePipe
}
