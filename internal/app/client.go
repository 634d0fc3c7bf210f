package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/rehearse/internal/cli"
	"github.com/rbright/rehearse/internal/config"
	"github.com/rbright/rehearse/internal/export"
	"github.com/rbright/rehearse/internal/fsm"
	"github.com/rbright/rehearse/internal/ipc"
	"github.com/rbright/rehearse/internal/session"
)

const (
	shortTimeout = 2 * time.Second
	// generationSlack covers socket and interpretation time on top of the
	// backend's own request timeout.
	generationSlack = 15 * time.Second
)

const noOwnerMessage = "no session owner running; start one with `rehearse serve`"

func (r Runner) commandStatus(ctx context.Context) int {
	resp, handled, err := r.tryForward(ctx, ipc.Request{Command: ipc.CommandStatus}, shortTimeout)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if !handled {
		fmt.Fprintln(r.Stdout, "idle (no session owner running)")
		return 0
	}
	return r.renderResponse(resp)
}

func (r Runner) commandStart(ctx context.Context, cfg config.Config, parsed cli.Parsed) int {
	return r.forward(ctx, ipc.Request{
		Command:  ipc.CommandStart,
		Mode:     parsed.Mode,
		Topic:    parsed.Topic,
		Language: parsed.Language,
	}, longTimeout(cfg))
}

func (r Runner) commandAnswer(ctx context.Context, cfg config.Config, text string) int {
	return r.forward(ctx, ipc.Request{Command: ipc.CommandAnswer, Text: text}, longTimeout(cfg))
}

func (r Runner) commandAction(ctx context.Context, cfg config.Config, command cli.Command) int {
	return r.forward(ctx, ipc.Request{Command: string(command)}, longTimeout(cfg))
}

func (r Runner) commandSummary(ctx context.Context) int {
	resp, ok := r.send(ctx, ipc.Request{Command: ipc.CommandSummary}, shortTimeout)
	if !ok {
		return 1
	}
	var snap session.Snapshot
	if err := resp.DecodeData(&snap); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if snap.Summary == nil {
		fmt.Fprintln(r.Stderr, "error: session summary not available")
		return 1
	}
	renderSummary(r.Stdout, *snap.Summary)
	return 0
}

func (r Runner) commandRestart(ctx context.Context, confirmed bool) int {
	if !confirmed {
		resp, handled, err := r.tryForward(ctx, ipc.Request{Command: ipc.CommandStatus}, shortTimeout)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if handled && resp.State != string(fsm.StateIdle) {
			fmt.Fprintf(r.Stderr, "error: the current session (%s) will be discarded; rerun with --yes to confirm\n", resp.State)
			return 1
		}
	}
	return r.forward(ctx, ipc.Request{Command: ipc.CommandRestart}, shortTimeout)
}

func (r Runner) commandExport(ctx context.Context, format string, out string) int {
	resp, ok := r.send(ctx, ipc.Request{Command: ipc.CommandReport}, shortTimeout)
	if !ok {
		return 1
	}
	var report session.Report
	if err := resp.DecodeData(&report); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	path, err := writeExport(report, format, out)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintf(r.Stdout, "wrote %s\n", path)
	return 0
}

func writeExport(report session.Report, format string, out string) (string, error) {
	if format == "" {
		format = cli.FormatText
	}

	path := strings.TrimSpace(out)
	switch format {
	case cli.FormatText:
		if path == "" {
			path = export.DefaultTranscriptName
		}
		if err := os.WriteFile(path, []byte(export.Transcript(report.Entries())), 0o644); err != nil {
			return "", fmt.Errorf("write transcript: %w", err)
		}
	case cli.FormatXLSX:
		if path == "" {
			path = export.DefaultWorkbookName
		}
		f, err := os.Create(path)
		if err != nil {
			return "", fmt.Errorf("create workbook: %w", err)
		}
		if err := export.WriteWorkbook(f, report.Export()); err != nil {
			_ = f.Close()
			return "", err
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close workbook: %w", err)
		}
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path, nil
}

// forward sends req and renders the returned snapshot.
func (r Runner) forward(ctx context.Context, req ipc.Request, timeout time.Duration) int {
	resp, ok := r.send(ctx, req, timeout)
	if !ok {
		return 1
	}
	return r.renderResponse(resp)
}

// send reports owner and transport failures itself; ok is false when the
// caller should exit non-zero.
func (r Runner) send(ctx context.Context, req ipc.Request, timeout time.Duration) (ipc.Response, bool) {
	resp, handled, err := r.tryForward(ctx, req, timeout)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ipc.Response{}, false
	}
	if !handled {
		fmt.Fprintln(r.Stderr, noOwnerMessage)
		return ipc.Response{}, false
	}
	if !resp.OK {
		fmt.Fprintf(r.Stderr, "error: %s\n", resp.Error)
		return resp, false
	}
	return resp, true
}

func (r Runner) renderResponse(resp ipc.Response) int {
	if len(resp.Data) == 0 {
		if !resp.OK {
			fmt.Fprintf(r.Stderr, "error: %s\n", resp.Error)
			return 1
		}
		fmt.Fprintln(r.Stdout, resp.Message)
		return 0
	}

	var snap session.Snapshot
	if err := resp.DecodeData(&snap); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	renderSnapshot(r.Stdout, snap)
	if !resp.OK {
		// renderSnapshot already printed the error of an errored session.
		if snap.State != fsm.StateErrored || snap.Error != resp.Error {
			fmt.Fprintf(r.Stderr, "error: %s\n", resp.Error)
		}
		return 1
	}
	return 0
}

func (r Runner) tryForward(ctx context.Context, req ipc.Request, timeout time.Duration) (ipc.Response, bool, error) {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		return ipc.Response{}, false, err
	}
	return tryForward(ctx, socketPath, req, timeout)
}

func longTimeout(cfg config.Config) time.Duration {
	return cfg.Generation.Timeout() + generationSlack
}

// tryForward reports handled=false when no owner is listening. Failed
// responses are returned as-is since they still carry a snapshot.
func tryForward(ctx context.Context, socketPath string, req ipc.Request, timeout time.Duration) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, req, timeout)
	switch {
	case err == nil:
		return resp, true, nil
	case errors.Is(err, ipc.ErrNoOwner):
		return ipc.Response{}, false, nil
	default:
		return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
	}
}
