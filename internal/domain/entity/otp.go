package entity

import (
	"time"
)

// Channel is the delivery medium for verification codes.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Valid reports whether c is a known delivery channel.
func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelSMS
}

// OTPRecord is one issued verification code. Every send creates a new
// row; only the most recently created unverified row is matchable.
type OTPRecord struct {
	ID        string
	UserID    string
	Code      string
	Channel   Channel
	ExpiresAt time.Time
	Attempts  int
	Verified  bool
	CreatedAt time.Time
}
