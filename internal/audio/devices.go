// Package audio finds microphones on the Pulse server and records answer
// dictation from one of them as 16kHz mono PCM.
package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const clientName = "rehearse"

var (
	// ErrServerUnavailable indicates no Pulse server could be reached.
	ErrServerUnavailable = errors.New("pulse server unavailable")
	// ErrAccessDenied indicates the Pulse server refused the client.
	ErrAccessDenied = errors.New("pulse access denied")
)

// Device is one Pulse input source.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

// Label is the human-facing name used in logs and diagnostics.
func (d Device) Label() string {
	switch {
	case d.Description != "" && d.ID != "":
		return fmt.Sprintf("%s (%s)", d.Description, d.ID)
	case d.Description != "":
		return d.Description
	default:
		return d.ID
	}
}

// ListDevices queries the Pulse server for its input sources.
func ListDevices(_ context.Context) ([]Device, error) {
	client, err := dial()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	fallback, err := client.DefaultSource()
	if err != nil {
		return nil, tagDenied(fmt.Errorf("read default source: %w", err))
	}

	var reply pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &reply); err != nil {
		return nil, tagDenied(fmt.Errorf("list sources: %w", err))
	}
	return devicesFromReply(reply, fallback.ID()), nil
}

func devicesFromReply(reply pulseproto.GetSourceInfoListReply, defaultID string) []Device {
	out := make([]Device, 0, len(reply))
	for _, info := range reply {
		if info == nil {
			continue
		}
		out = append(out, Device{
			ID:          info.SourceName,
			Description: info.Device,
			State:       stateName(info.State),
			Available:   activePortUsable(info),
			Muted:       info.Mute,
			Default:     info.SourceName == defaultID,
		})
	}
	return out
}

func dial() (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName(clientName),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err == nil {
		return client, nil
	}
	if denied(err) {
		return nil, fmt.Errorf("%w: %v", ErrAccessDenied, err)
	}
	return nil, fmt.Errorf("%w: %v", ErrServerUnavailable, err)
}

// tagDenied wraps server refusals in ErrAccessDenied and leaves other
// failures untouched.
func tagDenied(err error) error {
	if denied(err) {
		return fmt.Errorf("%w: %v", ErrAccessDenied, err)
	}
	return err
}

func denied(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "access denied")
}

var sourceStates = map[uint32]string{
	0: "running",
	1: "idle",
	2: "suspended",
}

func stateName(state uint32) string {
	if name, ok := sourceStates[state]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", state)
}

// Port availability as reported by Pulse.
const (
	portAvailabilityUnknown = 0
	portAvailabilityNo      = 1
	portAvailabilityYes     = 2
)

// activePortUsable reports false only when the source's active port is
// known to be unplugged. Sources without ports are treated as usable.
func activePortUsable(info *pulseproto.GetSourceInfoReply) bool {
	if info == nil {
		return false
	}
	for _, port := range info.Ports {
		if port.Name == info.ActivePortName {
			return port.Available != portAvailabilityNo
		}
	}
	return true
}
