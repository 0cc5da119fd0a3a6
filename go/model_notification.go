package checkoutserver

import (
	notificationsdomain "github.com/Apurer/ghadwa-checkout/internal/domains/notifications/domain"
)

// ChannelStatus describes one notification channel.
type ChannelStatus struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	Endpoint   string `json:"endpoint,omitempty"`
}

// ChannelResult is the outcome of one channel during a test broadcast.
type ChannelResult struct {
	Channel           string `json:"channel"`
	Success           bool   `json:"success"`
	Skipped           bool   `json:"skipped,omitempty"`
	Error             string `json:"error,omitempty"`
	Attempts          int    `json:"attempts,omitempty"`
	RetryAfterSeconds int    `json:"retryAfterSeconds,omitempty"`
}

// BroadcastReport is returned by the channel test endpoint.
type BroadcastReport struct {
	Results        []ChannelResult `json:"results"`
	SuccessCount   int             `json:"successCount"`
	OverallSuccess bool            `json:"overallSuccess"`
}

func channelStatuses(infos []notificationsdomain.ChannelInfo) []ChannelStatus {
	out := make([]ChannelStatus, 0, len(infos))
	for _, info := range infos {
		out = append(out, ChannelStatus{Name: info.Name, Configured: info.Configured, Endpoint: info.Endpoint})
	}
	return out
}

func broadcastReport(result notificationsdomain.BroadcastResult) BroadcastReport {
	results := make([]ChannelResult, 0, len(result.Results))
	for _, r := range result.Results {
		results = append(results, ChannelResult{
			Channel:           r.Channel,
			Success:           r.Success,
			Skipped:           r.Skipped,
			Error:             r.Error,
			Attempts:          r.Attempts,
			RetryAfterSeconds: int(r.RetryAfter.Seconds()),
		})
	}
	return BroadcastReport{Results: results, SuccessCount: result.SuccessCount, OverallSuccess: result.OverallSuccess}
}
