package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingNotifier struct {
	err error
}

func (f failingNotifier) Send(context.Context, Notification) error {
	return f.err
}

func TestToast(t *testing.T) {
	n := Toast(LevelWarning, "pending", "%d orders skipped", 3)

	assert.Equal(t, KindToast, n.Kind)
	assert.Equal(t, LevelWarning, n.Level)
	assert.Equal(t, "pending", n.View)
	assert.Equal(t, "3 orders skipped", n.Message)
	assert.False(t, n.SentAt.IsZero())
}

func TestWriterNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewWriterNotifier(&buf)

	require.NoError(t, n.Send(context.Background(), Toast(LevelSuccess, "", "saved")))
	require.NoError(t, n.Send(context.Background(), Refresh("pending")))
	require.NoError(t, n.Send(context.Background(), Toast(LevelError, "", "failed")))

	assert.Equal(t, "[success] saved\n[error] failed\n", buf.String())
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	require.NoError(t, NewLogNotifier(logger).Send(context.Background(), Toast(LevelError, "confirmed", "boom")))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "confirmed", entry["view"])
	assert.Equal(t, "boom", entry["message"])
}

func TestMulti(t *testing.T) {
	testCases := map[string]struct {
		notifiers     func(rec *Recorder) Multi
		expectedError string
	}{
		"should deliver to every notifier": {
			notifiers: func(rec *Recorder) Multi {
				return Multi{rec, nil, NewWriterNotifier(io.Discard)}
			},
		},
		"should keep delivering after a failure": {
			notifiers: func(rec *Recorder) Multi {
				return Multi{failingNotifier{err: errors.New("closed")}, rec}
			},
			expectedError: "closed",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			rec := NewRecorder()

			err := tc.notifiers(rec).Send(context.Background(), Toast(LevelInfo, "", "hello"))
			if tc.expectedError != "" {
				require.Error(t, err)
				assert.Equal(t, tc.expectedError, err.Error())
			} else {
				require.NoError(t, err)
			}

			require.Len(t, rec.Toasts(), 1)
			assert.Equal(t, "hello", rec.Toasts()[0].Message)
		})
	}
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	_ = rec.Send(context.Background(), Refresh("all"))
	_ = rec.Send(context.Background(), Toast(LevelInfo, "all", "done"))

	assert.Len(t, rec.All(), 2)
	assert.Len(t, rec.Toasts(), 1)
}

func TestHub(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	server := httptest.NewServer(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Send(context.Background(), Toast(LevelSuccess, "pending", "confirmed 2 orders")))
	require.NoError(t, hub.Send(context.Background(), Refresh("pending")))

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var first, second Notification
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))

	assert.Equal(t, KindToast, first.Kind)
	assert.Equal(t, "confirmed 2 orders", first.Message)
	assert.Equal(t, KindRefresh, second.Kind)
	assert.Equal(t, "pending", second.View)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_SendWithoutClients(t *testing.T) {
	hub := NewHub(slog.Default())
	assert.NoError(t, hub.Send(context.Background(), Toast(LevelInfo, "", "nobody listens")))
	assert.Zero(t, hub.Clients())
}

func TestHub_CheckOrigin(t *testing.T) {
	cases := map[string]struct {
		origin  func(serverURL string) string
		allowed []string
		ok      bool
	}{
		"should accept clients without an origin": {
			origin: func(string) string { return "" },
			ok:     true,
		},
		"should accept the serving host": {
			origin: func(serverURL string) string { return serverURL },
			ok:     true,
		},
		"should accept configured origins": {
			origin:  func(string) string { return "https://console.example.com" },
			allowed: []string{"https://console.example.com/"},
			ok:      true,
		},
		"should reject other origins": {
			origin:  func(string) string { return "https://evil.example.com" },
			allowed: []string{"https://console.example.com"},
		},
		"should reject malformed origins": {
			origin: func(string) string { return "null" },
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), tc.allowed...)
			server := httptest.NewServer(hub)
			defer server.Close()

			header := http.Header{}
			if origin := tc.origin(server.URL); origin != "" {
				header.Set("Origin", origin)
			}

			url := "ws" + strings.TrimPrefix(server.URL, "http")
			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if resp != nil {
				defer resp.Body.Close()
			}

			if !tc.ok {
				require.ErrorIs(t, err, websocket.ErrBadHandshake)
				assert.Equal(t, http.StatusForbidden, resp.StatusCode)
				return
			}

			require.NoError(t, err)
			assert.NoError(t, conn.Close())
		})
	}
}
