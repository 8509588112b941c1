package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/motionview/mvbridge/internal/framing"
	"github.com/motionview/mvbridge/internal/metrics"
	"github.com/motionview/mvbridge/internal/transport"
)

// Termination windows. Stop signals the group gracefully and allows
// gracefulWait for a clean exit; Kill signals forcefully and allows
// forceWait. Either way a process still alive afterwards is killed again and
// given confirmWait before the supervisor gives up waiting (handles are
// cleared regardless).
const (
	gracefulWait = 2 * time.Second
	forceWait    = 500 * time.Millisecond
	confirmWait  = time.Second

	readBufferSize = 4096
)

// ErrBinaryNotFound reports that the configured program could not be resolved
// on the search path. Surfaced distinctly so callers can render a precise
// status instead of a generic start failure.
var ErrBinaryNotFound = errors.New("binary not found on PATH")

// Publisher receives each framed output line. The broadcast hub satisfies it.
type Publisher interface {
	Publish(line string)
}

// Event is an internal lifecycle or warning notification, delivered through
// the supervisor's reporter for structured logging.
type Event struct {
	Timestamp time.Time
	Level     string
	Message   string
}

// Reporter consumes supervisor events. May be nil.
type Reporter func(Event)

// Config fixes the launch contract for the supervised process.
type Config struct {
	// Command is the program and its arguments, resolved via the search path.
	Command []string
	// Workdir is the directory the process is launched in.
	Workdir string
}

// StartResult describes the outcome of a successful Start call.
type StartResult struct {
	AlreadyRunning bool
	PID            int
	Mode           transport.Mode
}

// Status is a side-effect-free snapshot of the supervised process.
type Status struct {
	Running bool
	PID     int
	Mode    transport.Mode
}

// Supervisor owns at most one supervised process at a time, together with the
// output channel and the goroutines draining it. All exported methods are
// safe for concurrent use.
type Supervisor struct {
	command []string
	workdir string
	publish Publisher
	report  Reporter

	mu         sync.Mutex
	cmd        *exec.Cmd
	channel    transport.Channel
	mode       transport.Mode
	readerDone chan struct{}
	waitDone   chan struct{}
}

// New constructs a supervisor. publish must not be nil; report may be.
func New(cfg Config, publish Publisher, report Reporter) (*Supervisor, error) {
	if len(cfg.Command) == 0 {
		return nil, fmt.Errorf("supervisor requires a command")
	}
	if publish == nil {
		return nil, fmt.Errorf("supervisor requires a publisher")
	}
	return &Supervisor{
		command: append([]string(nil), cfg.Command...),
		workdir: cfg.Workdir,
		publish: publish,
		report:  report,
	}, nil
}

// Binary returns the program name the supervisor launches.
func (s *Supervisor) Binary() string {
	return s.command[0]
}

// Start spawns the supervised process. If one is already live the call is a
// no-op reporting the current state. A pseudo-terminal channel is preferred;
// any failure on that path is recovered by retrying with pipes. Only when
// both transports fail is an error returned, with ErrBinaryNotFound wrapped
// when the program is missing from the search path.
func (s *Supervisor) Start(ctx context.Context) (*StartResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runningLocked() {
		return &StartResult{AlreadyRunning: true, PID: s.cmd.Process.Pid, Mode: s.mode}, nil
	}
	s.releaseExitedLocked()

	res, err := s.startLocked(ctx, transport.OpenPTY)
	if err != nil {
		s.reportf("warn", "pty start failed, falling back to pipes: %v", err)
		res, err = s.startLocked(ctx, transport.OpenPipe)
	}
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", s.command[0], ErrBinaryNotFound)
		}
		return nil, err
	}

	metrics.SetProcessRunning(true)
	metrics.IncProcessStarts(string(res.Mode))
	s.reportf("info", "started %s (pid %d, mode %s)", s.command[0], res.PID, res.Mode)
	return res, nil
}

func (s *Supervisor) startLocked(ctx context.Context, open func() (transport.Channel, error)) (*StartResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch, err := open()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(s.command[0], s.command[1:]...)
	cmd.Dir = s.workdir
	configureSysProcAttr(cmd)

	if err := ch.Attach(cmd); err != nil {
		_ = ch.Close()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("spawn %s: %w", s.command[0], err)
	}
	// Child-side descriptors stay open in the child only.
	ch.Release()

	readerDone := make(chan struct{})
	waitDone := make(chan struct{})

	s.cmd = cmd
	s.channel = ch
	s.mode = ch.Mode()
	s.readerDone = readerDone
	s.waitDone = waitDone

	go s.drainOutput(ch, readerDone)
	go s.awaitExit(cmd, waitDone)

	return &StartResult{PID: cmd.Process.Pid, Mode: ch.Mode()}, nil
}

// drainOutput reads channel bytes until the stream ends or reads are
// cancelled, framing them into lines for the publisher.
func (s *Supervisor) drainOutput(ch transport.Channel, done chan struct{}) {
	defer close(done)
	framer := framing.New(s.publish.Publish)
	defer framer.Reset()

	buf := make([]byte, readBufferSize)
	for {
		n, err := ch.Read(buf)
		if n > 0 {
			_, _ = framer.Write(buf[:n])
		}
		if err != nil {
			// EOF on pipes, EIO on a pty whose slave closed, or a
			// cancelled read during teardown. All mean: stop.
			return
		}
	}
}

// awaitExit reaps the process. If it exits on its own (rather than through
// Stop or Kill) the handles are torn down here so nothing leaks across a
// later restart.
func (s *Supervisor) awaitExit(cmd *exec.Cmd, waitDone chan struct{}) {
	err := cmd.Wait()
	close(waitDone)

	s.mu.Lock()
	if s.cmd != cmd {
		// Stop or Kill already claimed the handles.
		s.mu.Unlock()
		return
	}
	ch, readerDone := s.clearLocked()
	s.mu.Unlock()

	s.drainChannel(ch, readerDone)
	metrics.SetProcessRunning(false)
	if err != nil {
		s.reportf("info", "process exited: %v", err)
	} else {
		s.reportf("info", "process exited")
	}
}

// Stop gracefully terminates the supervised process, escalating to a forced
// kill if it outlives the grace window. It reports false when nothing was
// running. Teardown is unconditional: every step is attempted even when an
// earlier one fails, and the supervisor always returns to an idle state from
// which Start can proceed.
func (s *Supervisor) Stop(ctx context.Context) bool {
	return s.terminate(ctx, true)
}

// Kill is Stop without the grace: the forceful signal is sent immediately and
// only a short confirmation window is allowed.
func (s *Supervisor) Kill(ctx context.Context) bool {
	return s.terminate(ctx, false)
}

func (s *Supervisor) terminate(ctx context.Context, graceful bool) bool {
	s.mu.Lock()
	if !s.runningLocked() {
		s.releaseExitedLocked()
		s.mu.Unlock()
		return false
	}
	cmd := s.cmd
	waitDone := s.waitDone
	ch, readerDone := s.clearLocked()
	s.mu.Unlock()

	// Reader first, so it cannot race the closing descriptors.
	s.closeChannel(ch, readerDone)

	if err := signalProcess(cmd, graceful); err != nil {
		s.reportf("warn", "signal process: %v", err)
	}

	window := forceWait
	if graceful {
		window = gracefulWait
	}
	if !waitFor(ctx, waitDone, window) {
		if err := signalProcess(cmd, false); err != nil {
			s.reportf("warn", "kill process: %v", err)
		}
		if !waitFor(ctx, waitDone, confirmWait) {
			s.reportf("warn", "process %d did not exit within the kill window", cmd.Process.Pid)
		}
	}

	metrics.SetProcessRunning(false)
	return true
}

// Status reports liveness without side effects.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.runningLocked() {
		return Status{}
	}
	return Status{Running: true, PID: s.cmd.Process.Pid, Mode: s.mode}
}

// clearLocked takes ownership of the channel and reader, resetting the
// supervisor to idle. Callers hold s.mu.
func (s *Supervisor) clearLocked() (transport.Channel, chan struct{}) {
	ch := s.channel
	readerDone := s.readerDone
	s.cmd = nil
	s.channel = nil
	s.mode = ""
	s.readerDone = nil
	s.waitDone = nil
	return ch, readerDone
}

// releaseExitedLocked tears down leftovers from a process that exited on its
// own between awaitExit claiming them and now. Callers hold s.mu.
func (s *Supervisor) releaseExitedLocked() {
	if s.cmd == nil {
		return
	}
	ch, readerDone := s.clearLocked()
	s.drainChannel(ch, readerDone)
}

// closeChannel cancels reads, joins the reader, then closes the descriptors.
// Order matters: a read must never race a closing descriptor. Used on the
// Stop/Kill path, where losing buffered tail output is acceptable.
func (s *Supervisor) closeChannel(ch transport.Channel, readerDone chan struct{}) {
	if ch != nil {
		ch.CancelReads()
	}
	if readerDone != nil {
		<-readerDone
	}
	if ch != nil {
		if err := ch.Close(); err != nil {
			s.reportf("warn", "close output channel: %v", err)
		}
	}
}

// drainChannel joins the reader without cancelling it, then closes the
// descriptors. Used when the process exited on its own: the reader finishes
// by itself, EOF on a pipe whose write ends are gone or EIO on a pty whose
// slave closed, and only after the buffered output has been framed.
// Cancelling here would drop the tail of a fast-exiting process.
func (s *Supervisor) drainChannel(ch transport.Channel, readerDone chan struct{}) {
	if readerDone != nil {
		<-readerDone
	}
	if ch != nil {
		if err := ch.Close(); err != nil {
			s.reportf("warn", "close output channel: %v", err)
		}
	}
}

func (s *Supervisor) runningLocked() bool {
	if s.cmd == nil {
		return false
	}
	select {
	case <-s.waitDone:
		return false
	default:
		return true
	}
}

func (s *Supervisor) reportf(level, format string, args ...any) {
	if s.report == nil {
		return
	}
	s.report(Event{
		Timestamp: time.Now(),
		Level:     level,
		Message:   fmt.Sprintf(format, args...),
	})
}

// waitFor waits for done, a bounded window, or context cancellation,
// reporting whether done fired.
func waitFor(ctx context.Context, done <-chan struct{}, window time.Duration) bool {
	timer := time.NewTimer(window)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
