package cmdserver

import (
	"encoding/binary"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/sungur/revbox/internal/engine"
)

func startSession(t *testing.T) net.Conn {
	t.Helper()
	srv := &server{opts: Options{Engine: engine.Version{Major: 3, Minor: 7}}}
	client, serverSide := net.Pipe()
	go srv.handleConnection(serverSide)
	t.Cleanup(func() { client.Close() })
	client.SetDeadline(time.Now().Add(5 * time.Second))
	return client
}

func sendCommand(t *testing.T, conn net.Conn, parts ...string) {
	t.Helper()
	payload := strings.Join(parts, "\x00")
	if err := WriteFrame(conn, Frame{Channel: ChannelCommand, Payload: []byte(payload)}); err != nil {
		t.Fatalf("WriteFrame() unexpected error: %v", err)
	}
}

func readResult(t *testing.T, conn net.Conn) uint32 {
	t.Helper()
	for {
		frame, err := ReadFrame(conn)
		if err != nil {
			t.Fatalf("ReadFrame() unexpected error: %v", err)
		}
		switch frame.Channel {
		case ChannelResult:
			return binary.BigEndian.Uint32(frame.Payload)
		case ChannelError:
			continue
		default:
			t.Fatalf("unexpected channel %q", frame.Channel)
		}
	}
}

func TestSessionHelloThenRuncommand(t *testing.T) {
	client := startSession(t)

	hello, err := ReadFrame(client)
	if err != nil {
		t.Fatalf("ReadFrame(hello) unexpected error: %v", err)
	}
	if hello.Channel != ChannelHello {
		t.Fatalf("first frame channel = %q, want hello", hello.Channel)
	}
	if !strings.Contains(string(hello.Payload), "engine: 3.7") {
		t.Errorf("hello payload %q missing engine version", hello.Payload)
	}

	sendCommand(t, client, "runcommand", "status")
	if status := readResult(t, client); status != 0 {
		t.Errorf("runcommand status = %d, want 0", status)
	}
}

func TestSessionRejectsUnknownRequest(t *testing.T) {
	client := startSession(t)

	if _, err := ReadFrame(client); err != nil { // hello
		t.Fatal(err)
	}

	sendCommand(t, client, "reboot")
	if status := readResult(t, client); status == 0 {
		t.Error("unknown request status = 0, want non-zero")
	}
}

func TestSessionStop(t *testing.T) {
	client := startSession(t)

	if _, err := ReadFrame(client); err != nil { // hello
		t.Fatal(err)
	}

	sendCommand(t, client, "stop")
	if status := readResult(t, client); status != 0 {
		t.Errorf("stop status = %d, want 0", status)
	}

	// The session ends after stop.
	if _, err := ReadFrame(client); err == nil {
		t.Error("ReadFrame after stop succeeded, want closed connection")
	}
}

func TestNewServerRequiresAddress(t *testing.T) {
	if _, err := newServer(Options{}); err == nil {
		t.Error("newServer(no address) error = nil, want failure")
	}
}
