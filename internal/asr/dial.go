package asr

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/credentials/oauth"
	"google.golang.org/grpc/status"
)

// Auth modes accepted by StreamConfig.Auth.
const (
	AuthNone = "none"
	AuthADC  = "adc"
)

// CloudPlatformScope is requested for application default credentials.
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// ErrCredentials indicates per-RPC credentials could not be resolved.
var ErrCredentials = errors.New("speech credentials unavailable")

// IsPermissionDenied reports whether err is an authentication or
// authorization failure from the speech service.
func IsPermissionDenied(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCredentials) {
		return true
	}
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		return true
	default:
		return false
	}
}

// Probe dials endpoint and waits until the connection is ready.
func Probe(ctx context.Context, cfg StreamConfig) error {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return errors.New("speech endpoint is empty")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	conn, err := dial(ctx, endpoint, cfg)
	if err != nil {
		return err
	}
	return conn.Close()
}

func dial(ctx context.Context, endpoint string, cfg StreamConfig) (*grpc.ClientConn, error) {
	opts, err := dialOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}

	conn, err := grpc.NewClient(endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial speech grpc %q: %w", endpoint, err)
	}

	readyCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	conn.Connect()
	if err := waitForReady(readyCtx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("wait for speech grpc readiness: %w", err)
	}
	return conn, nil
}

func dialOptions(ctx context.Context, cfg StreamConfig) ([]grpc.DialOption, error) {
	var opts []grpc.DialOption
	if cfg.TLS {
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})))
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	switch auth := strings.ToLower(strings.TrimSpace(cfg.Auth)); auth {
	case "", AuthNone:
	case AuthADC:
		if !cfg.TLS {
			return nil, fmt.Errorf("%w: adc auth requires tls", ErrCredentials)
		}
		source, err := google.DefaultTokenSource(ctx, CloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCredentials, err)
		}
		opts = append(opts, grpc.WithPerRPCCredentials(oauth.TokenSource{TokenSource: source}))
	default:
		return nil, fmt.Errorf("unsupported speech auth mode %q", auth)
	}
	return opts, nil
}

// waitForReady blocks until the connection enters Ready or fails.
func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return errors.New("grpc connection entered shutdown state")
		}

		if !conn.WaitForStateChange(ctx, state) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("grpc readiness wait timed out in state %s", state.String())
		}
	}
}

type openResult[T any] struct {
	stream T
	err    error
}

// openRecognizeWithTimeout bounds stream-open latency when backend RPCs stall.
func openRecognizeWithTimeout[T any](ctx context.Context, timeout time.Duration, open func() (T, error)) (T, error) {
	if timeout <= 0 {
		return open()
	}

	resultCh := make(chan openResult[T], 1)
	go func() {
		stream, err := open()
		resultCh <- openResult[T]{stream: stream, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-timer.C:
		return zero, fmt.Errorf("timed out after %s", timeout)
	case result := <-resultCh:
		return result.stream, result.err
	}
}

// runWithTimeout bounds one blocking stream operation such as the initial Send.
func runWithTimeout(ctx context.Context, timeout time.Duration, call func() error) error {
	if timeout <= 0 {
		return call()
	}

	resultCh := make(chan error, 1)
	go func() {
		resultCh <- call()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("timed out after %s", timeout)
	case err := <-resultCh:
		return err
	}
}
