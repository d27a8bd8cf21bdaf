package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/mensylisir/dockmcp/pkg/common"
)

const maxMessageSize = 16 * 1024 * 1024

// ServeStdio reads newline-delimited JSON-RPC messages from in and writes responses to out,
// one per line. Requests run concurrently; initialize and notifications are handled in
// arrival order. At EOF it waits for in-flight requests to answer; when ctx is done it
// cancels them first.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	sess := s.sessions.Create(ctx, common.TransportStdio)
	defer s.sessions.Close(sess.ID)
	s.log.With("session", shortSession(sess.ID)).Infof("serving MCP on stdio")

	var writeMu sync.Mutex
	write := func(b []byte) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if _, err := out.Write(append(b, '\n')); err != nil {
			s.log.Warnf("failed to write response: %v", err)
		}
	}

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 64*1024), maxMessageSize)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			select {
			case lines <- append([]byte(nil), line...):
			case <-sess.Context().Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	var wg sync.WaitGroup
	var err error
	eof := false
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case msg, ok := <-lines:
			if !ok {
				select {
				case err = <-readErr:
				default:
				}
				eof = true
				break loop
			}
			if handleInline(msg) {
				if resp := s.HandleMessage(sess, msg); resp != nil {
					write(resp)
				}
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if resp := s.HandleMessage(sess, msg); resp != nil {
					write(resp)
				}
			}()
		}
	}

	if eof {
		wg.Wait()
		sess.Close()
	} else {
		sess.Close()
		wg.Wait()
	}
	s.log.With("session", shortSession(sess.ID)).Infof("stdio session closed")
	return err
}

// handleInline reports whether msg must be processed before the next message is read.
func handleInline(msg []byte) bool {
	if msg[0] == '[' {
		return false
	}
	var probe Request
	if err := json.Unmarshal(msg, &probe); err != nil {
		return true
	}
	return probe.IsNotification() || probe.Method == "initialize" || probe.Method == "ping"
}
