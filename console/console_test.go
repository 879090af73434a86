package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/dcon/logging"
)

// syncBuffer makes bytes.Buffer safe for the arbiter goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func runWithInput(t *testing.T, input string, opts ...Option) (*Console, *syncBuffer) {
	t.Helper()
	out := &syncBuffer{}
	all := append([]Option{
		WithInput(strings.NewReader(input)),
		WithWriter(out),
		WithColor(false),
	}, opts...)
	return New(all...), out
}

func waitFor(t *testing.T, out *syncBuffer, sub string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !strings.Contains(out.String(), sub) {
		if time.Now().After(deadline) {
			t.Fatalf("output never contained %q:\n%s", sub, out.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRunDispatchesCommand(t *testing.T) {
	c, out := runWithInput(t, "hello world\r")

	var gotArgs []string
	c.RegisterCommand("hello", func(args []string) (string, error) {
		gotArgs = args
		return "hi from handler", nil
	})

	if err := c.Run("", ""); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(gotArgs) != 1 || gotArgs[0] != "world" {
		t.Errorf("args = %v, want [world]", gotArgs)
	}
	if !strings.Contains(out.String(), "hi from handler") {
		t.Errorf("handler output missing:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "> hello world") {
		t.Errorf("submitted line not echoed:\n%s", out.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	c, out := runWithInput(t, "nosuch\r")

	if err := c.Run("", ""); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), `unknown command: "nosuch"`) {
		t.Errorf("unknown command not reported:\n%s", out.String())
	}
}

func TestRunWelcomeAndFarewell(t *testing.T) {
	c, out := runWithInput(t, "")

	if err := c.Run("daemon ready", "goodbye"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "daemon ready") {
		t.Errorf("welcome missing:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "goodbye") {
		t.Errorf("farewell missing:\n%s", out.String())
	}
}

func TestRunCtrlDExits(t *testing.T) {
	c, _ := runWithInput(t, "\x04ignored after exit")

	done := make(chan error, 1)
	go func() { done <- c.Run("", "") }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not exit on Ctrl+D")
	}
}

func TestRunDoubleCtrlCExits(t *testing.T) {
	c, out := runWithInput(t, "\x03\x03")

	done := make(chan error, 1)
	go func() { done <- c.Run("", "") }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not exit on double Ctrl+C")
	}
	if !strings.Contains(out.String(), "Press Ctrl+C again") {
		t.Errorf("confirmation warning missing:\n%s", out.String())
	}
}

func TestRunIntermediateKeyDisarmsCtrlC(t *testing.T) {
	// A key between the two Ctrl+C presses withdraws the confirmation,
	// so the second press arms again instead of exiting.
	c, out := runWithInput(t, "\x03x\x03")

	if err := c.Run("", ""); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := strings.Count(out.String(), "Press Ctrl+C again"); got != 2 {
		t.Errorf("warning count = %d, want 2:\n%s", got, out.String())
	}
}

func TestRunCtrlCClearsBuffer(t *testing.T) {
	// Typed text before the first Ctrl+C must not leak into the next
	// submitted line.
	c, out := runWithInput(t, "abc\x03def\r")

	var got string
	c.SetUnknownCommandHandler(func(line string) string {
		got = line
		return ""
	})

	if err := c.Run("", ""); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got != "def" {
		t.Errorf("submitted line = %q, want %q", got, "def")
	}
	if !strings.Contains(out.String(), "Press Ctrl+C again") {
		t.Errorf("confirmation warning missing:\n%s", out.String())
	}
}

func TestRunWelcomeShownAtHighLogLevel(t *testing.T) {
	// The welcome line is not subject to log-level filtering.
	c, out := runWithInput(t, "", WithLogLevel(logging.LevelError))

	if err := c.Run("daemon ready", ""); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "daemon ready") {
		t.Errorf("welcome suppressed at high log level:\n%s", out.String())
	}
}

func TestRunCtrlCWarningShownAtHighLogLevel(t *testing.T) {
	// The exit confirmation must reach the user even when warn-level
	// logging is filtered out; otherwise a second Ctrl+C exits without
	// the user ever being asked.
	c, out := runWithInput(t, "\x03", WithLogLevel(logging.LevelError))

	if err := c.Run("", ""); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "Press Ctrl+C again") {
		t.Errorf("confirmation warning suppressed at high log level:\n%s", out.String())
	}
}

func TestRunAsyncUnknownHandler(t *testing.T) {
	pr, pw := io.Pipe()
	out := &syncBuffer{}
	c := New(WithInput(pr), WithWriter(out), WithColor(false))

	var gotLine string
	c.SetAsyncUnknownCommandHandler(func(ctx context.Context, line string) (string, error) {
		gotLine = line
		return "resolved elsewhere", nil
	})

	done := make(chan error, 1)
	go func() { done <- c.Run("", "") }()

	if _, err := pw.Write([]byte("mystery args\r")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, out, "resolved elsewhere")

	if gotLine != "mystery args" {
		t.Errorf("fallback line = %q, want %q", gotLine, "mystery args")
	}

	pw.Close()
	<-done
}

func TestRunFinalChunkWithEOF(t *testing.T) {
	// A Read returning data together with EOF must still process that
	// data, and the trailing lone escape byte is resolved rather than
	// left pending.
	c, _ := runWithInput(t, "")
	var calls int
	c.RegisterCommand("status", func(args []string) (string, error) {
		calls++
		return "", nil
	})
	c.in = &finalChunkReader{data: []byte("status\r\x1b")}

	done := make(chan error, 1)
	go func() { done <- c.Run("", "") }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not exit at stream end")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

// finalChunkReader delivers all its data and EOF in a single Read.
type finalChunkReader struct {
	data []byte
	used bool
}

func (r *finalChunkReader) Read(p []byte) (int, error) {
	if r.used {
		return 0, io.EOF
	}
	r.used = true
	n := copy(p, r.data)
	return n, io.EOF
}

// gatedReader blocks each Read on a channel and counts calls.
type gatedReader struct {
	feed  chan []byte
	calls atomic.Int32
}

func (r *gatedReader) Read(p []byte) (int, error) {
	r.calls.Add(1)
	b, ok := <-r.feed
	if !ok {
		return 0, io.EOF
	}
	return copy(p, b), nil
}

func TestRunReaderStopsAfterExit(t *testing.T) {
	// After Run returns, the reader goroutine must stop pulling from
	// the input stream instead of draining it into an abandoned channel.
	in := &gatedReader{feed: make(chan []byte, 16)}
	c := New(WithInput(in), WithWriter(&syncBuffer{}), WithColor(false))

	done := make(chan error, 1)
	go func() { done <- c.Run("", "") }()

	in.feed <- []byte{0x04}
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not exit on Ctrl+D")
	}

	// Unblock the read that was in flight when the loop exited; the
	// goroutine should return without issuing another.
	in.feed <- []byte("late")
	time.Sleep(50 * time.Millisecond)

	if got := in.calls.Load(); got > 2 {
		t.Errorf("reader kept consuming input after exit: %d reads", got)
	}
}

func TestRunHistoryRecall(t *testing.T) {
	// Up recalls the previous line, Enter re-submits it.
	c, _ := runWithInput(t, "ping\r\x1b[A\r")

	var calls int
	c.RegisterCommand("ping", func(args []string) (string, error) {
		calls++
		return "", nil
	})

	if err := c.Run("", ""); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRunBlankLineIgnored(t *testing.T) {
	c, out := runWithInput(t, "   \r")

	if err := c.Run("", ""); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.Contains(out.String(), "unknown command") {
		t.Errorf("blank line dispatched:\n%s", out.String())
	}
}

func TestRunAsyncCommandResult(t *testing.T) {
	pr, pw := io.Pipe()
	out := &syncBuffer{}
	c := New(WithInput(pr), WithWriter(out), WithColor(false))

	c.RegisterAsyncCommand("work", func(ctx context.Context, args []string) (string, error) {
		return "work complete", nil
	})

	done := make(chan error, 1)
	go func() { done <- c.Run("", "") }()

	if _, err := pw.Write([]byte("work\r")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, out, "started in the background")
	waitFor(t, out, "work complete")

	pw.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not exit after input closed")
	}
}

func TestRunAsyncErrorReported(t *testing.T) {
	pr, pw := io.Pipe()
	out := &syncBuffer{}
	c := New(WithInput(pr), WithWriter(out), WithColor(false))

	c.RegisterAsyncCommand("fail", func(ctx context.Context, args []string) (string, error) {
		return "", errors.New("backend unreachable")
	})

	done := make(chan error, 1)
	go func() { done <- c.Run("", "") }()

	if _, err := pw.Write([]byte("fail\r")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, out, "backend unreachable")

	pw.Close()
	<-done
}

func TestRunRejectsSecondRun(t *testing.T) {
	pr, pw := io.Pipe()
	c := New(WithInput(pr), WithWriter(&syncBuffer{}), WithColor(false))

	done := make(chan error, 1)
	go func() { done <- c.Run("", "") }()
	time.Sleep(20 * time.Millisecond)

	if err := c.Run("", ""); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}

	pw.Close()
	<-done
}

func TestLogBeforeRunWritesPlainly(t *testing.T) {
	out := &syncBuffer{}
	c := New(WithInput(strings.NewReader("")), WithWriter(out), WithColor(false))

	c.Info("starting up")
	if !strings.Contains(out.String(), "[INFO] starting up") {
		t.Errorf("pre-run log missing:\n%s", out.String())
	}
}

func TestLogLevelFiltering(t *testing.T) {
	out := &syncBuffer{}
	c := New(
		WithInput(strings.NewReader("")),
		WithWriter(out),
		WithColor(false),
		WithLogLevel(logging.LevelWarn),
	)

	c.Debug("noise")
	c.Warn("signal")

	if strings.Contains(out.String(), "noise") {
		t.Errorf("debug line not filtered:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "signal") {
		t.Errorf("warn line missing:\n%s", out.String())
	}
}

func TestSetPrompt(t *testing.T) {
	c, _ := runWithInput(t, "")
	c.SetPrompt("daemon> ")
	if c.promptValue() != "daemon> " {
		t.Errorf("prompt = %q", c.promptValue())
	}
}
