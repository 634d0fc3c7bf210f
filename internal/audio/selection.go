package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Selection is the microphone chosen for a listening session. Warning is
// set when the preferred input could not be used.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

// SelectDevice picks a microphone for the configured input and fallback
// preferences. "default" or an empty preference means the server default.
func SelectDevice(ctx context.Context, input string, fallback string) (Selection, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Selection{}, err
	}
	return choose(devices, input, fallback)
}

// preference is a normalized audio.input or audio.fallback value.
type preference string

func newPreference(raw string) preference {
	return preference(strings.ToLower(strings.TrimSpace(raw)))
}

func (p preference) serverDefault() bool {
	return p == "" || p == "default"
}

// find resolves p to the first matching device. Matching is a substring
// test against the source name and description.
func (p preference) find(devices []Device) (Device, bool) {
	for _, dev := range devices {
		if p.serverDefault() && dev.Default {
			return dev, true
		}
		if !p.serverDefault() && matches(dev, string(p)) {
			return dev, true
		}
	}
	return Device{}, false
}

func matches(dev Device, term string) bool {
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(dev.ID), term) ||
		strings.Contains(strings.ToLower(dev.Description), term)
}

// unusable explains why a device cannot record, or returns "".
func unusable(dev Device) string {
	switch {
	case dev.Muted:
		return "muted"
	case !dev.Available:
		return "unavailable"
	default:
		return ""
	}
}

func choose(devices []Device, input, fallback string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, errors.New("no audio input devices found")
	}

	want, backup := newPreference(input), newPreference(fallback)

	primary, ok := want.find(devices)
	if !ok {
		if want.serverDefault() {
			return Selection{}, errors.New("default audio source is unavailable")
		}
		return Selection{}, fmt.Errorf("audio.input %q did not match any device", string(want))
	}
	reason := unusable(primary)
	if reason == "" {
		return Selection{Device: primary}, nil
	}

	second, ok := backup.find(devices)
	if !ok {
		if backup.serverDefault() {
			return Selection{}, fmt.Errorf("audio.input %q is %s and no default source exists", primary.ID, reason)
		}
		return Selection{}, fmt.Errorf("audio.input %q is %s and fallback %q not found", primary.ID, reason, string(backup))
	}
	if why := unusable(second); why != "" {
		return Selection{}, fmt.Errorf("audio fallback device %q is %s", second.ID, why)
	}

	return Selection{
		Device:   second,
		Warning:  fmt.Sprintf("audio.input %q is %s; falling back to %q", primary.ID, reason, second.ID),
		Fallback: second.ID != primary.ID,
	}, nil
}
