package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

// requestReadTimeout bounds how long a client may take to send its request line.
const requestReadTimeout = 2 * time.Second

// Handler processes one IPC command request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// ServeOption customizes Serve.
type ServeOption func(*server)

// WithLogger logs one record per handled request.
func WithLogger(logger *slog.Logger) ServeOption {
	return func(s *server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type server struct {
	handler Handler
	logger  *slog.Logger
}

// Serve accepts unix-socket clients until context cancellation or listener close.
// Each connection carries one request and one response.
func Serve(ctx context.Context, listener net.Listener, handler Handler, opts ...ServeOption) error {
	s := &server{handler: handler, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}

	var wg sync.WaitGroup

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				wg.Wait()
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			defer c.Close()
			s.serveConn(ctx, c)
		}(conn)
	}
}

func (s *server) serveConn(ctx context.Context, c net.Conn) {
	enc := json.NewEncoder(c)

	_ = c.SetReadDeadline(time.Now().Add(requestReadTimeout))
	line, err := bufio.NewReader(c).ReadBytes('\n')
	if err != nil {
		_ = enc.Encode(Response{OK: false, Error: fmt.Sprintf("read request: %v", err)})
		return
	}
	_ = c.SetReadDeadline(time.Time{})

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		_ = enc.Encode(Response{OK: false, Error: fmt.Sprintf("decode request: %v", err)})
		return
	}

	started := time.Now()
	resp := s.handle(ctx, req)
	s.logger.Debug("ipc request handled",
		"command", req.Command,
		"ok", resp.OK,
		"state", resp.State,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	_ = enc.Encode(resp)
}

// handle runs the handler and turns a panic into an error response so one
// bad request does not take the session owner down.
func (s *server) handle(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("ipc handler panic", "command", req.Command, "panic", fmt.Sprint(r))
			resp = Response{OK: false, Error: fmt.Sprintf("internal error handling %q", req.Command)}
		}
	}()
	return s.handler.Handle(ctx, req)
}
