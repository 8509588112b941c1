package supervisor

import (
	"context"
	"errors"
	stdruntime "runtime"
	"sync"
	"testing"
	"time"
)

type captor struct {
	mu    sync.Mutex
	lines []string
}

func (c *captor) Publish(line string) {
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
}

func (c *captor) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

func newTestSupervisor(t *testing.T, command ...string) (*Supervisor, *captor) {
	t.Helper()
	if stdruntime.GOOS == "windows" {
		t.Skip("supervisor tests use /bin/sh and are skipped on windows")
	}
	sink := &captor{}
	sup, err := New(Config{Command: command, Workdir: t.TempDir()}, sink, nil)
	if err != nil {
		t.Fatalf("new supervisor: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		sup.Kill(ctx)
	})
	return sup, sink
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStartCapturesOutputLines(t *testing.T) {
	sup, sink := newTestSupervisor(t, "/bin/sh", "-c", "echo alpha; echo beta")

	res, err := sup.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if res.AlreadyRunning {
		t.Fatal("fresh start reported already running")
	}
	if res.PID <= 0 {
		t.Fatalf("pid = %d, want > 0", res.PID)
	}
	if res.Mode == "" {
		t.Fatal("start did not report a transport mode")
	}

	waitUntil(t, 5*time.Second, func() bool {
		return len(sink.snapshot()) >= 2
	})
	lines := sink.snapshot()
	if lines[0] != "alpha" || lines[1] != "beta" {
		t.Fatalf("lines = %v, want [alpha beta]", lines)
	}

	// Short-lived process: liveness must drop once it exits.
	waitUntil(t, 5*time.Second, func() bool {
		return !sup.Status().Running
	})
}

func TestNaturalExitDrainsBufferedOutput(t *testing.T) {
	// The child writes a burst and exits immediately, so its output is still
	// sitting in the channel buffer when the exit is reaped. Every line must
	// still be framed and published.
	const want = 50
	sup, sink := newTestSupervisor(t, "/bin/sh", "-c",
		"i=1; while [ $i -le 50 ]; do echo line$i; i=$((i+1)); done")

	if _, err := sup.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	waitUntil(t, 5*time.Second, func() bool {
		return !sup.Status().Running
	})
	waitUntil(t, 5*time.Second, func() bool {
		return len(sink.snapshot()) >= want
	})

	lines := sink.snapshot()
	if len(lines) != want {
		t.Fatalf("captured %d lines, want %d", len(lines), want)
	}
	if lines[0] != "line1" || lines[want-1] != "line50" {
		t.Fatalf("lines = [%s ... %s], want [line1 ... line50]", lines[0], lines[len(lines)-1])
	}
}

func TestStartWhileRunningIsNoop(t *testing.T) {
	sup, _ := newTestSupervisor(t, "/bin/sh", "-c", "sleep 30")

	first, err := sup.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	second, err := sup.Start(context.Background())
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if !second.AlreadyRunning {
		t.Fatal("second start did not report already running")
	}
	if second.PID != first.PID {
		t.Fatalf("second start pid = %d, want %d", second.PID, first.PID)
	}

	if !sup.Stop(context.Background()) {
		t.Fatal("stop reported not running")
	}
}

func TestStopAndKillWhenIdleAreNoops(t *testing.T) {
	sup, _ := newTestSupervisor(t, "/bin/sh", "-c", "true")

	if sup.Stop(context.Background()) {
		t.Fatal("stop on idle supervisor reported a running process")
	}
	if sup.Kill(context.Background()) {
		t.Fatal("kill on idle supervisor reported a running process")
	}

	status := sup.Status()
	if status.Running || status.PID != 0 {
		t.Fatalf("idle status = %+v", status)
	}
}

func TestRestartYieldsNewPID(t *testing.T) {
	sup, _ := newTestSupervisor(t, "/bin/sh", "-c", "sleep 30")

	first, err := sup.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !sup.Stop(context.Background()) {
		t.Fatal("stop reported not running")
	}

	second, err := sup.Start(context.Background())
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if second.AlreadyRunning {
		t.Fatal("restart reported already running")
	}
	if second.PID == first.PID {
		t.Fatalf("restart reused pid %d", first.PID)
	}
}

func TestStopEscalatesWhenSigtermIgnored(t *testing.T) {
	sup, _ := newTestSupervisor(t, "/bin/sh", "-c", `trap "" TERM; while :; do sleep 0.1; done`)

	if _, err := sup.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	begin := time.Now()
	if !sup.Stop(context.Background()) {
		t.Fatal("stop reported not running")
	}
	elapsed := time.Since(begin)

	// Graceful window plus kill confirmation, with scheduling slack.
	if elapsed > gracefulWait+confirmWait+2*time.Second {
		t.Fatalf("stop took %v, want bounded by the termination windows", elapsed)
	}
	if sup.Status().Running {
		t.Fatal("process still reported running after stop")
	}

	if _, err := sup.Start(context.Background()); err != nil {
		t.Fatalf("start after forced stop: %v", err)
	}
}

func TestKillTerminatesImmediately(t *testing.T) {
	sup, _ := newTestSupervisor(t, "/bin/sh", "-c", "sleep 30")

	if _, err := sup.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !sup.Kill(context.Background()) {
		t.Fatal("kill reported not running")
	}
	if sup.Status().Running {
		t.Fatal("process still reported running after kill")
	}
}

func TestStartMissingBinary(t *testing.T) {
	sup, _ := newTestSupervisor(t, "mvbridge-no-such-binary")

	_, err := sup.Start(context.Background())
	if err == nil {
		t.Fatal("expected an error for a missing binary")
	}
	if !errors.Is(err, ErrBinaryNotFound) {
		t.Fatalf("error = %v, want ErrBinaryNotFound", err)
	}
	if sup.Status().Running {
		t.Fatal("failed start left the supervisor reporting running")
	}
}

func TestWarningEventsReportedOnFallback(t *testing.T) {
	if stdruntime.GOOS == "windows" {
		t.Skip("supervisor tests use /bin/sh and are skipped on windows")
	}

	var mu sync.Mutex
	var events []Event
	sink := &captor{}
	sup, err := New(Config{Command: []string{"mvbridge-no-such-binary"}}, sink, func(evt Event) {
		mu.Lock()
		events = append(events, evt)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("new supervisor: %v", err)
	}

	if _, err := sup.Start(context.Background()); err == nil {
		t.Fatal("expected start to fail")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) == 0 {
		t.Fatal("expected a warning event for the pty fallback")
	}
	if events[0].Level != "warn" {
		t.Fatalf("event level = %q, want warn", events[0].Level)
	}
}
