package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func TestTelegramNotifier_NumericChat(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramNotifierWithSender(sender)

	err := n.Notify(context.Background(), " 123456 ", "time to run")

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(123456), sender.sent[0].ChatID)
	assert.Equal(t, "time to run", sender.sent[0].Text)
}

func TestTelegramNotifier_ChannelChat(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramNotifierWithSender(sender)

	require.NoError(t, n.Notify(context.Background(), "@habits_channel", "hi"))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "@habits_channel", sender.sent[0].ChannelUsername)
}

func TestTelegramNotifier_EmptyChat(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramNotifierWithSender(sender)

	err := n.Notify(context.Background(), "", "hi")

	assert.ErrorIs(t, err, ErrNoChat)
	assert.Empty(t, sender.sent)
}

func TestTelegramNotifier_SendError(t *testing.T) {
	apiErr := errors.New("bad gateway")
	n := NewTelegramNotifierWithSender(&fakeSender{err: apiErr})

	err := n.Notify(context.Background(), "1", "hi")

	assert.ErrorIs(t, err, apiErr)
}

func TestDispatch_ReportsResult(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramNotifierWithSender(sender)

	select {
	case err := <-Dispatch(n, time.Second, "42", "created"):
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch did not finish")
	}

	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(42), sender.sent[0].ChatID)
}

func TestDispatch_FailureIsSwallowed(t *testing.T) {
	n := NewTelegramNotifierWithSender(&fakeSender{err: errors.New("down")})

	err := <-Dispatch(n, time.Second, "42", "created")

	assert.Error(t, err)
}

func TestNopNotifier(t *testing.T) {
	assert.NoError(t, NopNotifier{}.Notify(context.Background(), "1", "x"))
}

const (
	getMeResponse       = `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"habits","username":"habits_bot"}}`
	sendMessageResponse = `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`
)

func botServer(t *testing.T, sendDelay time.Duration) string {
	t.Helper()
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			fmt.Fprint(w, getMeResponse)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			select {
			case <-time.After(sendDelay):
			case <-release:
			case <-r.Context().Done():
				return
			}
			fmt.Fprint(w, sendMessageResponse)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })
	return server.URL + "/bot%s/%s"
}

func TestNewTelegramNotifier_Sends(t *testing.T) {
	n, err := NewTelegramNotifier("123:abc", botServer(t, 0), time.Second)
	require.NoError(t, err)

	assert.NoError(t, n.Notify(context.Background(), "42", "hi"))
}

func TestNewTelegramNotifier_SendIsBoundedByTimeout(t *testing.T) {
	n, err := NewTelegramNotifier("123:abc", botServer(t, 10*time.Second), 200*time.Millisecond)
	require.NoError(t, err)

	start := time.Now()
	select {
	case err := <-Dispatch(n, 200*time.Millisecond, "42", "hi"):
		assert.Error(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("send was not bounded by the client timeout")
	}
	assert.Less(t, time.Since(start), 3*time.Second)
}
