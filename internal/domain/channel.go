package domain

import (
	"fmt"
	"strings"
)

// Channel is the delivery mechanism of a notification. The set is closed:
// every switch over Channel must handle ChannelEmail, ChannelPush and ChannelSMS.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelPush  Channel = "PUSH"
	// ChannelSMS is reserved. Alerts may carry it but no transport exists yet.
	ChannelSMS Channel = "SMS"
)

func (c Channel) String() string { return string(c) }

func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelPush, ChannelSMS:
		return true
	}
	return false
}

// Label is the lower-case form used for metric labels and limiter keys.
func (c Channel) Label() string {
	return strings.ToLower(string(c))
}

func ParseChannelFromString(s string) (Channel, error) {
	ch := Channel(strings.ToUpper(strings.TrimSpace(s)))
	if !ch.IsValid() {
		return "", fmt.Errorf("%w: invalid channel %q", ErrValidation, s)
	}
	return ch, nil
}
