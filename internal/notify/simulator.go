// Package notify simulates delivery to the wuphf notification channels.
// Nothing is actually sent anywhere; each channel maps to a canned
// human-readable string produced after a configurable fake latency.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// formatters maps a lowercase channel name to its notification renderer.
// Unknown channels fall through to a generic line.
var formatters = map[string]func(string) string{
	"email":     func(m string) string { return "📧 Email sent to all contacts: " + m },
	"sms":       func(m string) string { return "📱 Text message broadcast: " + m },
	"facebook":  func(m string) string { return "📘 Posted to Facebook wall: " + m },
	"twitter":   func(m string) string { return "🐦 Tweeted: " + m },
	"printer":   func(m string) string { return "🖨️ Printing WUPHF on nearest printer: " + m },
	"homephone": func(m string) string { return "☎️ Calling all home phones: " + m },
	"pager":     func(m string) string { return "📟 Pager alert sent: " + m },
	"fax":       func(m string) string { return "📠 Fax transmitted: " + m },
}

type Simulator struct {
	channelDelay time.Duration
	printerDelay time.Duration
	now          func() time.Time
}

func NewSimulator(channelDelay, printerDelay time.Duration) *Simulator {
	return &Simulator{
		channelDelay: channelDelay,
		printerDelay: printerDelay,
		now:          time.Now,
	}
}

// Simulate renders the notification string for one channel after the
// channel latency has elapsed. Channel matching is case-insensitive.
func (s *Simulator) Simulate(ctx context.Context, channel, message string) (string, error) {
	if err := wait(ctx, s.channelDelay); err != nil {
		return "", err
	}
	if f, ok := formatters[strings.ToLower(channel)]; ok {
		return f(message), nil
	}
	return fmt.Sprintf("📢 %s notification: %s", channel, message), nil
}

const printRule = "══════════════════════════════════════"

// Printout renders the decorative receipt block for the print channel.
// The printer is old; it takes a while.
func (s *Simulator) Printout(ctx context.Context, content, author string) (string, error) {
	if err := wait(ctx, s.printerDelay); err != nil {
		return "", err
	}
	return fmt.Sprintf(`
%s
                 W U P H F !
%s
From: %s
Time: %s

%s

%s
    WUPHF - The Future of Communication
         washington university
        public health fund
%s
`, printRule, printRule, author, s.now().Format("2006-01-02 15:04:05"), content, printRule, printRule), nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
