package bridge

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/picoforge/go-picorepl/link"
	"github.com/picoforge/go-picorepl/pico"
	"github.com/picoforge/go-picorepl/repl"
)

// fakeTransport is an in-memory serial link: writes are recorded and an
// optional hook scripts the device's reaction.
type fakeTransport struct {
	mu      sync.Mutex
	writes  [][]byte
	onWrite func(f *fakeTransport, p []byte)

	inbox     chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		inbox:  make(chan []byte, 64),
		closed: make(chan struct{}),
	}
}

func (f *fakeTransport) Read(p []byte) (int, error) {
	select {
	case b := <-f.inbox:
		return copy(p, b), nil
	case <-f.closed:
		return 0, errors.New("transport closed")
	case <-time.After(time.Millisecond):
		return 0, nil
	}
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := make([]byte, len(p))
	copy(cp, p)
	f.writes = append(f.writes, cp)
	if f.onWrite != nil {
		f.onWrite(f, cp)
	}
	return len(p), nil
}

func (f *fakeTransport) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func fastTimings() pico.Timings {
	return pico.Timings{
		PollInterval:    time.Millisecond,
		OpenSettle:      2 * time.Millisecond,
		ModeSettle:      2 * time.Millisecond,
		InterruptSettle: 2 * time.Millisecond,
		CommandSettle:   5 * time.Millisecond,
		PasteSettle:     2 * time.Millisecond,
		InterChunk:      time.Millisecond,
		ExecSettle:      5 * time.Millisecond,
		ResponseWindow:  30 * time.Millisecond,
		RawExecSettle:   5 * time.Millisecond,
		RebootSettle:    2 * time.Millisecond,
		QuietSettle:     time.Millisecond,
	}
}

// stubDialer returns a Dialer whose connections run against ft.
func stubDialer(ft *fakeTransport) Dialer {
	return func(path string) (*pico.Connection, error) {
		conn := pico.NewConnection(path,
			pico.WithTransport(ft),
			pico.WithTimings(fastTimings()),
			pico.WithQuietCommand(""),
		)
		if err := conn.Open(); err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// runBridge feeds the commands through a bridge and returns the emitted
// response lines.
func runBridge(t *testing.T, commands string, opts ...Option) []string {
	t.Helper()

	var out bytes.Buffer
	b := New(strings.NewReader(commands), &out, opts...)
	require.NoError(t, b.Run())

	return strings.Split(strings.TrimSpace(out.String()), "\n")
}

func TestBridgeReadyAndClosed(t *testing.T) {
	lines := runBridge(t, "QUIT\n")
	require.Equal(t, []string{TagReady, TagClosed}, lines)
}

func TestBridgeClosesOnEOF(t *testing.T) {
	// No QUIT: EOF must still produce an orderly shutdown.
	lines := runBridge(t, "STATUS\n")
	require.Equal(t, []string{TagReady, TagStatus + "disconnected", TagClosed}, lines)
}

func TestBridgeUnknownCommand(t *testing.T) {
	lines := runBridge(t, "BOGUS STUFF\nQUIT\n")
	require.Contains(t, lines, TagUnknown+"BOGUS STUFF")
}

func TestBridgeConnectAndStatus(t *testing.T) {
	ft := newFakeTransport()
	lines := runBridge(t,
		"CONNECT:/dev/ttyACM0\nSTATUS\nDISCONNECT\nSTATUS\nQUIT\n",
		WithDialer(stubDialer(ft)),
	)

	require.Contains(t, lines, TagConnected)
	require.Contains(t, lines, TagStatus+"connected")
	require.Contains(t, lines, TagDisconnected)
	require.Contains(t, lines, TagStatus+"disconnected")
}

func TestBridgeConnectFailure(t *testing.T) {
	dialer := func(path string) (*pico.Connection, error) {
		return nil, errors.New("resource busy")
	}
	lines := runBridge(t, "CONNECT:/dev/ttyACM0\nQUIT\n", WithDialer(dialer))
	require.Contains(t, lines, TagConnectionFailed)
}

func TestBridgeExecuteCode(t *testing.T) {
	ft := newFakeTransport()
	ft.onWrite = func(f *fakeTransport, p []byte) {
		if len(p) == 1 && p[0] == repl.EOT {
			f.inbox <- []byte("2\r\n")
		}
	}

	lines := runBridge(t,
		"CONNECT:/dev/ttyACM0\nEXECUTE_CODE:print(1+1)\nQUIT\n",
		WithDialer(stubDialer(ft)),
	)

	require.Contains(t, lines, TagResult+"2")
	// The output observer forwards the same fragment asynchronously.
	require.Contains(t, lines, TagOutput+"2")
}

func TestBridgeExecuteCodeSilentDevice(t *testing.T) {
	ft := newFakeTransport()
	lines := runBridge(t,
		"CONNECT:/dev/ttyACM0\nEXECUTE_CODE:x = 1\nQUIT\n",
		WithDialer(stubDialer(ft)),
	)
	require.Contains(t, lines, TagExecuted)
}

func TestBridgeExecuteCodeNotConnected(t *testing.T) {
	lines := runBridge(t, "EXECUTE_CODE:print(1)\nQUIT\n")
	require.Contains(t, lines, TagError+"not connected")
}

func TestBridgeInterrupt(t *testing.T) {
	ft := newFakeTransport()
	lines := runBridge(t,
		"CONNECT:/dev/ttyACM0\nINTERRUPT\nQUIT\n",
		WithDialer(stubDialer(ft)),
	)
	require.Contains(t, lines, TagInterrupted)

	lines = runBridge(t, "INTERRUPT\nQUIT\n")
	require.Contains(t, lines, TagError+"not connected")
}

func TestBridgeFindPorts(t *testing.T) {
	finder := func() ([]link.PortDescriptor, error) {
		return []link.PortDescriptor{
			{Device: "/dev/ttyACM0", Description: "Pico W"},
			{Device: "/dev/ttyACM1", Description: "Pico"},
		}, nil
	}
	lines := runBridge(t, "FIND_PORTS\nQUIT\n", WithPortFinder(finder))
	require.Contains(t, lines, TagPorts+"/dev/ttyACM0,/dev/ttyACM1")

	failing := func() ([]link.PortDescriptor, error) {
		return nil, errors.New("enumeration failed")
	}
	lines = runBridge(t, "FIND_PORTS\nQUIT\n", WithPortFinder(failing))
	require.Contains(t, lines, TagError+"enumeration failed")
}

func TestBridgeDisconnectsOnQuit(t *testing.T) {
	ft := newFakeTransport()
	dialer := stubDialer(ft)

	var conn *pico.Connection
	trackingDialer := func(path string) (*pico.Connection, error) {
		c, err := dialer(path)
		conn = c
		return c, err
	}

	runBridge(t, "CONNECT:/dev/ttyACM0\nQUIT\n", WithDialer(trackingDialer))
	require.NotNil(t, conn)
	require.False(t, conn.Connected(), "bridge must close the connection on exit")
}
