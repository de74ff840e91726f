package cmdserver

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sungur/revbox/internal/engine"
	"github.com/sungur/revbox/internal/log"
	"github.com/sungur/revbox/internal/paths"
	"github.com/sungur/revbox/internal/textenc"
)

// Options carries the bootstrap state the server needs. The search path is
// the read-only value assembled at boot; the server never extends it.
type Options struct {
	// Address is the Unix domain socket path from the invocation.
	Address string
	// PostExec is the daemon post-exec token, e.g. "chdir:/".
	PostExec string
	// SearchPath is the library search path assembled at bootstrap.
	SearchPath paths.SearchPath
	// Engine is the embedded engine version, reported in the hello.
	Engine engine.Version
}

// Run starts the command server and does not return: it terminates the
// process when the listener shuts down. Deferred loading is deliberately
// never enabled on this path; the server resolves modules per session.
func Run(opts Options) {
	srv, err := newServer(opts)
	if err != nil {
		log.Errorf("abort: %v", err)
		os.Exit(1)
	}
	if err := srv.listenAndServe(); err != nil {
		log.Errorf("abort: %v", err)
		os.Exit(1)
	}
	os.Exit(0)
}

type server struct {
	opts     Options
	listener net.Listener

	mu       sync.Mutex
	stopping bool
	wg       sync.WaitGroup
}

func newServer(opts Options) (*server, error) {
	if opts.Address == "" {
		return nil, errors.New("command server needs a socket address")
	}
	if err := applyPostExec(opts.PostExec); err != nil {
		return nil, err
	}
	return &server{opts: opts}, nil
}

// applyPostExec honors the daemon post-exec token. Only "chdir:" is
// understood; the bootstrap contract always passes "chdir:/" so the daemon
// does not pin whatever directory it was started from.
func applyPostExec(token string) error {
	if token == "" {
		return nil
	}
	dir, ok := strings.CutPrefix(token, "chdir:")
	if !ok {
		return fmt.Errorf("unsupported post-exec token %q", token)
	}
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("post-exec chdir: %w", err)
	}
	return nil
}

func (s *server) listenAndServe() error {
	// A stale socket from a previous daemon would block the bind.
	os.Remove(s.opts.Address)
	if dir := filepath.Dir(s.opts.Address); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create socket directory: %w", err)
		}
	}

	ln, err := net.Listen("unix", s.opts.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Address, err)
	}
	s.listener = ln
	defer ln.Close()

	log.Debugf("command server listening on %s", s.opts.Address)

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			stopping := s.stopping
			s.mu.Unlock()
			if stopping {
				break
			}
			log.Warnf("accept: %v", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}

	s.wg.Wait()
	os.Remove(s.opts.Address)
	return nil
}

// stop makes the accept loop exit after in-flight sessions finish.
func (s *server) stop() {
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()
	if s.listener != nil {
		s.listener.Close()
	}
}

// handleConnection runs one client session: hello, then request frames
// until the client disconnects or asks the server to stop.
func (s *server) handleConnection(conn net.Conn) {
	defer conn.Close()

	hello := Frame{Channel: ChannelHello, Payload: helloPayload(s.opts.Engine.String())}
	if err := WriteFrame(conn, hello); err != nil {
		log.Warnf("hello: %v", err)
		return
	}

	for {
		frame, err := ReadFrame(conn)
		if err != nil {
			return
		}
		if frame.Channel != ChannelCommand {
			s.reply(conn, fmt.Sprintf("unexpected channel %q", frame.Channel), 1)
			continue
		}

		// Client payloads go through the process decode mode: under strict
		// decoding a malformed request fails the request, not the server.
		text, err := textenc.DecodeString(frame.Payload)
		if err != nil {
			s.reply(conn, err.Error(), 1)
			continue
		}

		args := splitCommand(text)
		if len(args) == 0 {
			s.reply(conn, "empty command", 1)
			continue
		}

		switch args[0] {
		case "stop":
			_ = WriteResult(conn, 0)
			s.stop()
			return
		case "runcommand":
			log.Debugf("runcommand %v", args[1:])
			// Execution semantics live in the dispatch engine; the envelope
			// acknowledges the request.
			_ = WriteResult(conn, 0)
		default:
			s.reply(conn, fmt.Sprintf("unknown request %q", args[0]), 1)
		}
	}
}

func (s *server) reply(conn net.Conn, message string, status uint32) {
	_ = WriteFrame(conn, Frame{Channel: ChannelError, Payload: []byte(message + "\n")})
	_ = WriteResult(conn, status)
}
