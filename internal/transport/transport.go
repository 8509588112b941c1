// Package transport provides the byte-stream channel between the supervised
// process and the bridge. Two implementations exist: a pseudo-terminal pair,
// preferred because interactive CLIs only emit line-buffered output when they
// believe a terminal is attached, and a plain pipe pair used as the fallback
// (and the only option on Windows, where PTY allocation is unsupported).
package transport

import "os/exec"

// Mode identifies which channel implementation a process was started with.
type Mode string

const (
	ModePTY  Mode = "pty"
	ModePipe Mode = "pipes"
)

// Channel owns the descriptors that carry a child process's output. The
// lifecycle is: open the channel, Attach it to the command, start the
// command, then Release the child-side descriptors. Reads block until data
// arrives, the stream ends, or CancelReads is called; CancelReads must be
// issued (and the reading goroutine joined) before Close so that no read can
// race a closing descriptor.
type Channel interface {
	// Attach wires the command's standard streams to the child side of the
	// channel. Must be called before the command is started.
	Attach(cmd *exec.Cmd) error

	// Release closes the child-side descriptors retained in this process.
	// Call it once the command has started (or failed to start).
	Release()

	// Read reads output bytes produced by the child.
	Read(p []byte) (int, error)

	// CancelReads unblocks any in-flight Read and makes future reads fail
	// immediately.
	CancelReads()

	// Close releases the parent-side descriptors. Idempotent.
	Close() error

	// Mode reports which transport this channel implements.
	Mode() Mode
}
