package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Commands understood by the session owner.
const (
	CommandStatus  = "status"
	CommandStart   = "start"
	CommandAnswer  = "answer"
	CommandNext    = "next"
	CommandEnd     = "end"
	CommandRestart = "restart"
	CommandSummary = "summary"
	CommandReport  = "report"
	CommandListen  = "listen"
)

type Request struct {
	Command  string `json:"command"`
	Mode     string `json:"mode,omitempty"`
	Topic    string `json:"topic,omitempty"`
	Language string `json:"language,omitempty"`
	Text     string `json:"text,omitempty"`
}

type Response struct {
	OK      bool            `json:"ok"`
	State   string          `json:"state,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// WithData encodes v into the response payload.
func (r Response) WithData(v any) Response {
	raw, err := json.Marshal(v)
	if err != nil {
		r.OK = false
		r.Error = fmt.Sprintf("encode response data: %v", err)
		return r
	}
	r.Data = raw
	return r
}

// DecodeData decodes the response payload into v.
func (r Response) DecodeData(v any) error {
	if len(r.Data) == 0 {
		return errors.New("response carries no data")
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
