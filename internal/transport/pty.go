//go:build !windows

package transport

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
)

type ptyChannel struct {
	ptm *os.File

	mu  sync.Mutex
	pts *os.File

	closeOnce sync.Once
	closeErr  error
}

// OpenPTY allocates a pseudo-terminal channel. The child's stdin, stdout and
// stderr all attach to the slave side; the parent reads from the master.
func OpenPTY() (Channel, error) {
	ptm, pts, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("open pty: %w", err)
	}
	return &ptyChannel{ptm: ptm, pts: pts}, nil
}

func (c *ptyChannel) Attach(cmd *exec.Cmd) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pts == nil {
		return fmt.Errorf("pty channel already released")
	}
	cmd.Stdin = c.pts
	cmd.Stdout = c.pts
	cmd.Stderr = c.pts
	return nil
}

func (c *ptyChannel) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pts != nil {
		_ = c.pts.Close()
		c.pts = nil
	}
}

func (c *ptyChannel) Read(p []byte) (int, error) {
	// The master returns EIO once the last slave descriptor closes; callers
	// treat any read error as end of stream.
	return c.ptm.Read(p)
}

func (c *ptyChannel) CancelReads() {
	_ = c.ptm.SetReadDeadline(time.Now())
}

func (c *ptyChannel) Close() error {
	c.closeOnce.Do(func() {
		c.Release()
		c.closeErr = c.ptm.Close()
	})
	return c.closeErr
}

func (c *ptyChannel) Mode() Mode {
	return ModePTY
}
