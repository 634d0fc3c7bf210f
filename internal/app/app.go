// Package app is the rehearse composition root: it parses the command line,
// loads config and logging, and dispatches to the session owner or a client.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/rbright/rehearse/internal/cli"
	"github.com/rbright/rehearse/internal/config"
	"github.com/rbright/rehearse/internal/doctor"
	"github.com/rbright/rehearse/internal/locale"
	"github.com/rbright/rehearse/internal/logging"
	"github.com/rbright/rehearse/internal/version"
)

const binaryName = "rehearse"

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	logRuntime, err := logging.New(cfgLoaded.Config.Log.Level)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	// Clients only surface config warnings that block them; the owner and
	// doctor print all of them.
	verbose := parsed.Command == cli.CommandServe || parsed.Command == cli.CommandDoctor
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		if verbose {
			fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		}
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	cfg := cfgLoaded.Config
	switch parsed.Command {
	case cli.CommandServe:
		return r.commandServe(ctx, cfg, logger)
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandLanguages:
		return r.commandLanguages(cfg)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandStart:
		return r.commandStart(ctx, cfg, parsed)
	case cli.CommandAnswer:
		return r.commandAnswer(ctx, cfg, parsed.Text)
	case cli.CommandNext:
		return r.commandAction(ctx, cfg, cli.CommandNext)
	case cli.CommandEnd:
		return r.commandAction(ctx, cfg, cli.CommandEnd)
	case cli.CommandListen:
		return r.commandAction(ctx, cfg, cli.CommandListen)
	case cli.CommandSummary:
		return r.commandSummary(ctx)
	case cli.CommandExport:
		return r.commandExport(ctx, parsed.Format, parsed.Out)
	case cli.CommandRestart:
		return r.commandRestart(ctx, parsed.Yes)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandLanguages(cfg config.Config) int {
	configured, _ := locale.Lookup(cfg.Session.Language)
	for _, lang := range locale.All() {
		mark := " "
		if lang.Code == configured.Code {
			mark = "*"
		}
		fmt.Fprintf(r.Stdout, "%s %-6s %s\n", mark, lang.Code, lang.Name)
	}
	return 0
}
