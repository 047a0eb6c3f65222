package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	mu    sync.Mutex
	paths []string
	forms []map[string]string
}

func (c *captured) last() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.forms) == 0 {
		return nil
	}
	return c.forms[len(c.forms)-1]
}

// botServer answers getMe and sendMessage like the Bot API.
func botServer(t *testing.T, ok bool) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		c.mu.Lock()
		c.paths = append(c.paths, r.URL.Path)
		c.forms = append(c.forms, map[string]string{
			"chat_id":    r.PostForm.Get("chat_id"),
			"text":       r.PostForm.Get("text"),
			"parse_mode": r.PostForm.Get("parse_mode"),
		})
		c.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/bottok/getMe":
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"dash","username":"dash_bot"}}`))
		case "/bottok/sendMessage":
			if !ok {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
				return
			}
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":42,"date":1,"chat":{"id":12345,"type":"private"}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func TestHTTPTransportSend(t *testing.T) {
	t.Parallel()

	srv, c := botServer(t, true)
	n := NewWithTransport(NewHTTPTransport(srv.URL, "tok", 0, srv.Client()), "12345")

	resp := n.Send(context.Background(), "<b>done</b>")
	require.NotNil(t, resp)
	assert.True(t, resp.OK)

	var result struct {
		MessageID int `json:"message_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Equal(t, 42, result.MessageID)

	assert.Equal(t, []string{"/bottok/sendMessage"}, c.paths)
	assert.Equal(t, map[string]string{"chat_id": "12345", "text": "<b>done</b>", "parse_mode": "HTML"}, c.last())
}

func TestHTTPTransportReturnsRejectedReply(t *testing.T) {
	t.Parallel()

	srv, _ := botServer(t, false)
	n := NewWithTransport(NewHTTPTransport(srv.URL, "tok", 10, nil), "12345")

	resp := n.SendError(context.Background(), "boom", "")
	require.NotNil(t, resp)
	assert.False(t, resp.OK)
	assert.Equal(t, 400, resp.ErrorCode)
	assert.Equal(t, "Bad Request: chat not found", resp.Description)
}

func TestSendSwallowsTransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	n := NewWithTransport(NewHTTPTransport(url, "tok", 0, nil), "1")
	assert.Nil(t, n.Send(context.Background(), "hi"))
	assert.Nil(t, n.SendSignal(context.Background(), Signal{Name: "buy"}))
	assert.Nil(t, n.SendSummary(context.Background(), Summary{Decision: DecisionWait}))
}

func TestHTTPTransportBadBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>gateway</html>"))
	}))
	t.Cleanup(srv.Close)

	_, err := NewHTTPTransport(srv.URL, "tok", 0, nil).Send(context.Background(), Message{ChatID: "1", Text: "x"})
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "http", terr.Transport)
}

func TestBotTransportSend(t *testing.T) {
	t.Parallel()

	srv, c := botServer(t, true)
	bt, err := NewBotTransport(srv.URL, "tok", 0, srv.Client())
	require.NoError(t, err)

	n := NewWithTransport(bt, "12345")
	resp := n.SendSummary(context.Background(), Summary{Decision: DecisionLong})
	require.NotNil(t, resp)
	assert.True(t, resp.OK)

	form := c.last()
	assert.Equal(t, "12345", form["chat_id"])
	assert.Equal(t, "HTML", form["parse_mode"])
	assert.Contains(t, form["text"], "📈 LONG")
	assert.Contains(t, c.paths, "/bottok/getMe")
}

func TestBotTransportRejectedReply(t *testing.T) {
	t.Parallel()

	srv, _ := botServer(t, false)
	bt, err := NewBotTransport(srv.URL, "tok", 0, nil)
	require.NoError(t, err)

	resp, err := bt.Send(context.Background(), Message{ChatID: "@channel", Text: "x", ParseMode: ParseModeHTML})
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Equal(t, "Bad Request: chat not found", resp.Description)
}

func TestNewUsesEnvironment(t *testing.T) {
	t.Setenv(EnvToken, "")
	t.Setenv(EnvChatID, "")

	_, err := New(Options{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	t.Setenv(EnvToken, "tok")
	t.Setenv(EnvChatID, "12345")

	srv, c := botServer(t, true)
	n, err := New(Options{APIURL: srv.URL})
	require.NoError(t, err)
	require.NotNil(t, n.Send(context.Background(), "hi"))
	assert.Equal(t, "12345", c.last()["chat_id"])

	_, err = New(Options{Transport: "pigeon"})
	assert.ErrorContains(t, err, "pigeon")
}
