package domain

import (
	"errors"
	"time"
)

// Channel names used in logs, results and configuration.
const (
	ChannelWebhook    = "webhook"
	ChannelEmailRelay = "email-relay"
	ChannelFormsRelay = "forms-relay"
)

const (
	MessageNotConfigured = "channel not configured"
	MessageExhausted     = "all notification channels failed or are not configured"
)

// ErrNotConfigured is returned when a disabled channel is asked to send.
var ErrNotConfigured = errors.New(MessageNotConfigured)

// Result is the outcome of one channel handling one notification.
type Result struct {
	Channel    string        `json:"channel"`
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
	RetryAfter time.Duration `json:"retryAfter,omitempty"`
	Attempts   int           `json:"attempts,omitempty"`
	Skipped    bool          `json:"skipped,omitempty"`
}

// DispatchResult is the outcome of a first-success dispatch across channels.
type DispatchResult struct {
	Success  bool     `json:"success"`
	Channel  string   `json:"channel,omitempty"`
	Message  string   `json:"message,omitempty"`
	Attempts []Result `json:"attempts,omitempty"`
}

// BroadcastResult is the outcome of sending through every channel.
type BroadcastResult struct {
	Results        []Result `json:"results"`
	SuccessCount   int      `json:"successCount"`
	OverallSuccess bool     `json:"overallSuccess"`
}

// ChannelInfo describes a channel for diagnostics.
type ChannelInfo struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	Endpoint   string `json:"endpoint,omitempty"`
}

// Attempter is implemented by errors that know how many attempts were made.
type Attempter interface {
	Attempts() int
}

// RetryAfterer is implemented by errors that carry a server supplied backoff hint.
type RetryAfterer interface {
	RetryAfter() time.Duration
}

// ResultFromError converts a channel error into a Result.
func ResultFromError(channel string, err error) Result {
	if err == nil {
		return Result{Channel: channel, Success: true}
	}
	result := Result{Channel: channel, Error: err.Error(), Attempts: 1}
	var attempter Attempter
	if errors.As(err, &attempter) {
		result.Attempts = attempter.Attempts()
	}
	var hinted RetryAfterer
	if errors.As(err, &hinted) {
		result.RetryAfter = hinted.RetryAfter()
	}
	return result
}
