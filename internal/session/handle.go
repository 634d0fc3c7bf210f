package session

import (
	"context"
	"fmt"

	"github.com/rbright/rehearse/internal/ipc"
)

// Handle serves IPC commands for the session owner.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return respond(c.Snapshot(), nil, "status")
	case ipc.CommandStart:
		kind, err := ParseKind(req.Mode)
		if err != nil {
			return respond(c.Snapshot(), err, "")
		}
		snap, err := c.Start(ctx, StartOptions{Kind: kind, Topic: req.Topic, Language: req.Language})
		return respond(snap, err, "session started")
	case ipc.CommandAnswer:
		snap, err := c.SubmitAnswer(ctx, req.Text)
		return respond(snap, err, "answer recorded")
	case ipc.CommandNext:
		snap, err := c.Advance(ctx)
		return respond(snap, err, "advanced")
	case ipc.CommandEnd:
		snap, err := c.End(ctx)
		return respond(snap, err, "interview ended")
	case ipc.CommandRestart:
		return respond(c.Restart(), nil, "session discarded")
	case ipc.CommandListen:
		wasListening := c.dictation.Listening()
		snap, err := c.ToggleListen(ctx)
		message := "listening"
		if wasListening {
			message = "dictated answer submitted"
		}
		return respond(snap, err, message)
	case ipc.CommandSummary:
		if _, err := c.Summary(); err != nil {
			return respond(c.Snapshot(), err, "")
		}
		return respond(c.Snapshot(), nil, "summary")
	case ipc.CommandReport:
		report, err := c.Report()
		if err != nil {
			return ipc.Response{OK: false, State: string(c.State()), Error: UserMessage(err)}
		}
		return ipc.Response{OK: true, State: string(report.State), Message: "report"}.WithData(report)
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

func respond(snap Snapshot, err error, message string) ipc.Response {
	resp := ipc.Response{OK: err == nil, State: string(snap.State), Message: message}
	if err != nil {
		resp.Message = ""
		resp.Error = UserMessage(err)
	}
	return resp.WithData(snap)
}
