package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// DefaultAPIURL is the public Bot API host.
const DefaultAPIURL = "https://api.telegram.org"

// ParseModeHTML is the only parse mode the formatters produce.
const ParseModeHTML = tgbotapi.ModeHTML

// Message is one outgoing chat message.
type Message struct {
	ChatID    string
	Text      string
	ParseMode string
}

// Response is the decoded Bot API reply. It is returned as is; OK may be
// false.
type Response struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

// Transport delivers one message with a single request.
type Transport interface {
	Send(ctx context.Context, m Message) (*Response, error)
}

// TransportError wraps a failed delivery.
type TransportError struct {
	Transport string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport: %v", e.Transport, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPTransport posts form-encoded sendMessage requests.
type HTTPTransport struct {
	client   *http.Client
	limiter  *rate.Limiter
	endpoint string
}

// NewHTTPTransport builds a transport for token against apiURL. A
// non-positive rps disables rate limiting; a nil client gets a 30s timeout.
func NewHTTPTransport(apiURL, token string, rps float64, client *http.Client) *HTTPTransport {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &HTTPTransport{
		client:   client,
		limiter:  rate.NewLimiter(limit, 1),
		endpoint: strings.TrimRight(apiURL, "/") + "/bot" + token + "/sendMessage",
	}
}

func (t *HTTPTransport) Send(ctx context.Context, m Message) (*Response, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Transport: "http", Err: err}
	}

	form := url.Values{
		"chat_id":    {m.ChatID},
		"text":       {m.Text},
		"parse_mode": {m.ParseMode},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &TransportError{Transport: "http", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &TransportError{Transport: "http", Err: err}
	}
	defer resp.Body.Close()

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &TransportError{Transport: "http", Err: fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)}
	}
	return &out, nil
}

// BotTransport sends through the telegram-bot-api client.
type BotTransport struct {
	bot     *tgbotapi.BotAPI
	limiter *rate.Limiter
}

// NewBotTransport connects to the Bot API; the client checks token with a
// getMe call.
func NewBotTransport(apiURL, token string, rps float64, client *http.Client) (*BotTransport, error) {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	endpoint := strings.TrimRight(apiURL, "/") + "/bot%s/%s"
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, &TransportError{Transport: "bot", Err: err}
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &BotTransport{bot: bot, limiter: rate.NewLimiter(limit, 1)}, nil
}

func (t *BotTransport) Send(ctx context.Context, m Message) (*Response, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Transport: "bot", Err: err}
	}

	var msg tgbotapi.MessageConfig
	if id, err := strconv.ParseInt(m.ChatID, 10, 64); err == nil {
		msg = tgbotapi.NewMessage(id, m.Text)
	} else {
		msg = tgbotapi.NewMessageToChannel(m.ChatID, m.Text)
	}
	msg.ParseMode = m.ParseMode

	resp, err := t.bot.Request(msg)
	if resp == nil {
		return nil, &TransportError{Transport: "bot", Err: err}
	}
	// the client reports ok=false replies as errors; they are still replies
	return &Response{
		OK:          resp.Ok,
		Result:      resp.Result,
		ErrorCode:   resp.ErrorCode,
		Description: resp.Description,
	}, nil
}
