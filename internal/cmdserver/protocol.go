// Package cmdserver implements the persistent background command server
// reached through the bootstrap fast path ("chgunix2" transport).
//
// Only the session envelope lives here: socket setup, the hello exchange,
// and request framing. Command execution behind the envelope belongs to the
// dispatch engine.
package cmdserver

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// MarkerEnv gates the bootstrap fast path. It is set only by the server's
// own re-exec step, never by end users, so the fast path cannot be
// triggered externally by accident.
const MarkerEnv = "CHGINTERNALMARK"

// Channel bytes for the framing protocol.
const (
	// ChannelHello carries the server greeting.
	ChannelHello byte = 'H'
	// ChannelCommand carries a client request (NUL-separated argv).
	ChannelCommand byte = 'c'
	// ChannelResult carries a 4-byte big-endian exit status.
	ChannelResult byte = 'r'
	// ChannelError carries diagnostic text for the client's stderr.
	ChannelError byte = 'e'
)

// maxFrameSize rejects absurdly large payloads (8MB).
const maxFrameSize = 8 * 1024 * 1024

// Frame is a single protocol message.
// Wire format: [1-byte channel][4-byte big-endian length][payload]
type Frame struct {
	Channel byte
	Payload []byte
}

// WriteFrame writes a single frame to the writer.
func WriteFrame(w io.Writer, f Frame) error {
	if _, err := w.Write([]byte{f.Channel}); err != nil {
		return fmt.Errorf("write channel: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(f.Payload))); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if len(f.Payload) > 0 {
		if _, err := w.Write(f.Payload); err != nil {
			return fmt.Errorf("write payload: %w", err)
		}
	}
	return nil
}

// ReadFrame reads a single frame from the reader.
func ReadFrame(r io.Reader) (Frame, error) {
	var f Frame

	channel := make([]byte, 1)
	if _, err := io.ReadFull(r, channel); err != nil {
		return f, err
	}
	f.Channel = channel[0]

	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return f, fmt.Errorf("read length: %w", err)
	}
	if length > maxFrameSize {
		return f, fmt.Errorf("frame too large: %d bytes", length)
	}

	if length > 0 {
		f.Payload = make([]byte, length)
		if _, err := io.ReadFull(r, f.Payload); err != nil {
			return f, fmt.Errorf("read payload: %w", err)
		}
	}
	return f, nil
}

// WriteResult writes an exit status on the result channel.
func WriteResult(w io.Writer, status uint32) error {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint32(payload, status)
	return WriteFrame(w, Frame{Channel: ChannelResult, Payload: payload})
}

// helloPayload is the greeting sent to every new connection.
func helloPayload(engineVersion string) []byte {
	var b strings.Builder
	b.WriteString("capabilities: runcommand stop\n")
	b.WriteString("engine: " + engineVersion + "\n")
	return []byte(b.String())
}

// splitCommand splits a NUL-separated argv payload that has already been
// decoded to text.
func splitCommand(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\x00")
}
