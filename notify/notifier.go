// Package notify formats trading notifications and posts them to the
// Telegram Bot API.
//
// Delivery is fire and forget. Notifier methods make one request, return
// the decoded reply, and log and swallow every failure.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Environment fallbacks for unset credentials.
const (
	EnvToken  = "TELEGRAM_BOT_TOKEN"
	EnvChatID = "TELEGRAM_CHAT_ID"
)

var ErrNotConfigured = errors.New("notifier token or chat id not configured")

// Options configure New.
type Options struct {
	Token  string
	ChatID string

	// APIURL defaults to DefaultAPIURL.
	APIURL string

	// Transport is "http" (default) or "bot".
	Transport string

	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// Notifier sends formatted messages to one chat.
type Notifier struct {
	transport Transport
	chatID    string
	now       func() time.Time
	logger    zerolog.Logger
}

// New resolves credentials, falling back to TELEGRAM_BOT_TOKEN and
// TELEGRAM_CHAT_ID, and builds the configured transport.
func New(opts Options) (*Notifier, error) {
	if opts.Token == "" {
		opts.Token = os.Getenv(EnvToken)
	}
	if opts.ChatID == "" {
		opts.ChatID = os.Getenv(EnvChatID)
	}
	if opts.Token == "" || opts.ChatID == "" {
		return nil, ErrNotConfigured
	}

	var t Transport
	switch opts.Transport {
	case "", "http":
		t = NewHTTPTransport(opts.APIURL, opts.Token, opts.RequestsPerSecond, opts.HTTPClient)
	case "bot":
		bt, err := NewBotTransport(opts.APIURL, opts.Token, opts.RequestsPerSecond, opts.HTTPClient)
		if err != nil {
			return nil, err
		}
		t = bt
	default:
		return nil, fmt.Errorf("unknown notify transport %q", opts.Transport)
	}
	return NewWithTransport(t, opts.ChatID), nil
}

// NewWithTransport returns a notifier that sends to chatID through t.
func NewWithTransport(t Transport, chatID string) *Notifier {
	return &Notifier{
		transport: t,
		chatID:    chatID,
		now:       time.Now,
		logger:    log.With().Str("component", "notify").Logger(),
	}
}

// Send posts text as is.
func (n *Notifier) Send(ctx context.Context, text string) *Response {
	return n.deliver(ctx, "message", FormatMessage(text))
}

// SendSignal posts a formatted trading signal.
func (n *Notifier) SendSignal(ctx context.Context, s Signal) *Response {
	return n.deliver(ctx, "signal", FormatSignal(n.now(), s))
}

// SendSummary posts a formatted decision summary.
func (n *Notifier) SendSummary(ctx context.Context, s Summary) *Response {
	return n.deliver(ctx, "summary", FormatSummary(n.now(), s))
}

// SendError posts a formatted error notification.
func (n *Notifier) SendError(ctx context.Context, msg, detail string) *Response {
	return n.deliver(ctx, "error", FormatError(n.now(), msg, detail))
}

func (n *Notifier) deliver(ctx context.Context, kind, text string) *Response {
	resp, err := n.transport.Send(ctx, Message{ChatID: n.chatID, Text: text, ParseMode: ParseModeHTML})
	if err != nil {
		n.logger.Error().Err(err).Str("kind", kind).Msg("send notification")
		return nil
	}
	if !resp.OK {
		n.logger.Warn().Str("kind", kind).Int("code", resp.ErrorCode).Str("description", resp.Description).Msg("notification rejected")
	}
	return resp
}
