package bridge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dropsense/internal/config"
	"dropsense/internal/errors"
	"dropsense/internal/helper"
	"dropsense/internal/protocol"
	"dropsense/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelperProcess is not a real test. It is the fake helper the other
// tests spawn by re-executing the test binary.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("HELPER_MODE") {
	case "helper":
		cfg := config.New()
		if err := helper.Run(context.Background(), os.Stdin, os.Stdout, cfg); err != nil {
			os.Exit(1)
		}
	case "noisy":
		fmt.Println(`{"type":"ready"}`)
		fmt.Println("Compiling FileDragListener")
		fmt.Println(`{"type":"mystery","value":1}`)
		fmt.Println(`{"type":"test","message":"ping"}`)
		fmt.Fprintln(os.Stderr, "warning: something on stderr")
		time.Sleep(time.Minute)
	case "silent":
		time.Sleep(time.Minute)
	case "early-exit":
		os.Exit(2)
	case "crash":
		fmt.Println(`{"type":"ready"}`)
		time.Sleep(200 * time.Millisecond)
		os.Exit(3)
	case "flood":
		fmt.Println(`{"type":"ready"}`)
		time.Sleep(100 * time.Millisecond)
		for i := 0; i < 50; i++ {
			fmt.Printf(`{"type":"test","message":"%d"}`+"\n", i)
		}
		time.Sleep(time.Minute)
	}
	os.Exit(0)
}

func newTestBridge(t *testing.T, mode string, opts ...Option) *Bridge {
	t.Helper()
	base := []Option{
		WithCommand(os.Args[0], "-test.run=^TestHelperProcess$"),
		WithEnv("GO_WANT_HELPER_PROCESS=1", "HELPER_MODE="+mode),
		WithReadyTimeout(5 * time.Second),
	}
	b := New(config.New(), append(base, opts...)...)
	t.Cleanup(b.Stop)
	return b
}

// next waits for an event of the given type
func next(t *testing.T, events <-chan protocol.Event, typ string) protocol.Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "event channel closed")
			if ev.Type() == typ {
				return ev
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %s event", typ)
		}
	}
}

func TestStartWithRealHelper(t *testing.T) {
	b := newTestBridge(t, "helper")
	events, cancel := b.Subscribe()
	defer cancel()

	require.NoError(t, b.Start(context.Background()))
	assert.True(t, b.IsListening())

	report := filepath.Join(t.TempDir(), "notes.TXT")
	require.NoError(t, os.WriteFile(report, []byte("hi"), 0644))

	require.NoError(t, b.Send(protocol.Command{Type: protocol.CommandPointerDown, X: 10, Y: 10}))
	require.NoError(t, b.Send(protocol.Command{Type: protocol.CommandDrop, FileURL: "file://" + report}))
	require.NoError(t, b.Send(protocol.Command{Type: protocol.CommandPointerUp}))

	file := next(t, events, protocol.TypeFile).(protocol.FileDetected)
	assert.Equal(t, "notes.TXT", file.Result.FileName)
	assert.Equal(t, "txt", file.Result.FileExtension)
	assert.True(t, file.Result.IsFileType)

	b.Stop()
	assert.False(t, b.IsListening())

	// Stopped helpers still report their exit
	next(t, events, protocol.TypeExit)
}

func TestNonProtocolOutputIsTolerated(t *testing.T) {
	b := newTestBridge(t, "noisy")
	events, cancel := b.Subscribe()
	defer cancel()

	require.NoError(t, b.Start(context.Background()))

	raw := next(t, events, protocol.SourceRaw).(protocol.Log)
	assert.Equal(t, "Compiling FileDragListener", raw.Message)

	// The unknown event is skipped; the test event after it still arrives
	test := next(t, events, protocol.TypeTest).(protocol.Test)
	assert.Equal(t, "ping", test.Message)
	assert.True(t, b.IsListening())
}

func TestSpawnFailure(t *testing.T) {
	b := New(config.New(), WithCommand(filepath.Join(t.TempDir(), "no-such-helper")))

	err := b.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsSpawnFailure(err))
	assert.False(t, b.IsListening())
}

func TestReadyTimeout(t *testing.T) {
	b := newTestBridge(t, "silent", WithReadyTimeout(200*time.Millisecond))

	start := time.Now()
	require.NoError(t, b.Start(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
	assert.True(t, b.IsListening())
}

func TestExitBeforeReady(t *testing.T) {
	b := newTestBridge(t, "early-exit")

	err := b.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsUnexpectedExit(err))

	var procErr *errors.ProcessError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, 2, procErr.ExitCode())
	assert.False(t, b.IsListening())
}

func TestUnexpectedExitIsReported(t *testing.T) {
	b := newTestBridge(t, "crash")
	events, cancel := b.Subscribe()
	defer cancel()

	require.NoError(t, b.Start(context.Background()))

	exit := next(t, events, protocol.TypeExit).(protocol.Exit)
	assert.Equal(t, 3, exit.Code)
	assert.Empty(t, exit.Signal)
	assert.False(t, b.IsListening())

	err := b.Send(protocol.Command{Type: protocol.CommandPointerUp})
	assert.True(t, errors.Is(err, errors.ErrNotRunning))
}

func TestRestartStopsPreviousHelper(t *testing.T) {
	b := newTestBridge(t, "helper")
	require.NoError(t, b.Start(context.Background()))

	b.mu.Lock()
	first := b.current
	b.mu.Unlock()

	require.NoError(t, b.Start(context.Background()))
	assert.True(t, b.IsListening())

	select {
	case <-first.exited:
	case <-time.After(5 * time.Second):
		t.Fatal("previous helper still running")
	}
	assert.True(t, b.IsListening())
}

func TestFullSubscriberDropsEvents(t *testing.T) {
	b := newTestBridge(t, "flood", WithBufferSize(1))
	slow, cancel := b.Subscribe()
	defer cancel()

	require.NoError(t, b.Start(context.Background()))

	// Nobody reads while the helper floods; publishing must not block.
	time.Sleep(500 * time.Millisecond)
	require.Len(t, slow, 1)
	assert.Equal(t, protocol.Test{Message: "0"}, <-slow)
	assert.True(t, b.IsListening())
}

func TestStartHonorsContext(t *testing.T) {
	b := newTestBridge(t, "silent")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := b.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, b.IsListening())
}

func TestHost(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		h := NewHost(New(config.New(), WithCommand(filepath.Join(t.TempDir(), "missing"))))
		defer h.Close()

		assert.True(t, h.CheckPermissions())
		assert.False(t, h.IsDetectionActive())
		assert.Nil(t, h.GetLastDetectedFile())

		_, err := h.GetSelection(context.Background())
		assert.True(t, errors.IsUnsupported(err))

		res := h.StartDetection(context.Background())
		assert.False(t, res.Success)
		assert.NotEmpty(t, res.Error)

		assert.Equal(t, types.OK(), h.StopDetection())
	})

	t.Run("collaborators", func(t *testing.T) {
		want := types.Selection{Text: "hello", Process: &types.ProcessInfo{PID: 42, Name: "TextEdit"}}
		h := NewHost(New(config.New()),
			WithPermissionChecker(PermissionFunc(func() bool { return false })),
			WithSelectionProvider(SelectionFunc(func(context.Context) (types.Selection, error) { return want, nil })),
		)
		defer h.Close()

		assert.False(t, h.CheckPermissions())
		got, err := h.GetSelection(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("detection lifecycle", func(t *testing.T) {
		h := NewHost(newTestBridge(t, "helper"))
		defer h.Close()

		assert.Equal(t, types.OK(), h.StartDetection(context.Background()))
		assert.True(t, h.IsDetectionActive())

		dir := t.TempDir()
		require.NoError(t, h.Send(protocol.Command{Type: protocol.CommandClassify, Path: dir}))

		require.Eventually(t, func() bool {
			return h.GetLastDetectedFile() != nil
		}, 5*time.Second, 20*time.Millisecond)

		last := h.GetLastDetectedFile()
		assert.Equal(t, dir, last.FilePath)
		assert.Equal(t, types.KindFolder, last.Kind)

		assert.Equal(t, types.OK(), h.StopDetection())
		assert.False(t, h.IsDetectionActive())
		// History survives a stop
		assert.NotNil(t, h.GetLastDetectedFile())
	})
}
