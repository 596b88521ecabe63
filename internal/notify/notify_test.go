package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendwatch/internal/types"
)

type fakeChannel struct {
	name string
	fail bool
	sent []string
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) Send(_ context.Context, report string) error {
	if f.fail {
		return fmt.Errorf("send failed")
	}
	f.sent = append(f.sent, report)
	return nil
}

func TestDispatchPartialFailure(t *testing.T) {
	ok := &fakeChannel{name: "ok"}
	bad := &fakeChannel{name: "bad", fail: true}
	d := NewDispatcher([]Channel{ok, bad}, nil)

	results, err := d.Dispatch(context.Background(), "report")
	require.NoError(t, err, "one surviving channel is a success")
	assert.True(t, results["ok"])
	assert.False(t, results["bad"])
	assert.Equal(t, []string{"report"}, ok.sent)
}

func TestDispatchAllFailed(t *testing.T) {
	d := NewDispatcher([]Channel{
		&fakeChannel{name: "a", fail: true},
		&fakeChannel{name: "b", fail: true},
	}, nil)

	results, err := d.Dispatch(context.Background(), "report")
	assert.Error(t, err)
	assert.False(t, results["a"])
	assert.False(t, results["b"])
}

func TestDispatchNoChannels(t *testing.T) {
	d := NewDispatcher(nil, nil)
	assert.False(t, d.HasChannels())
	results, err := d.Dispatch(context.Background(), "report")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestWebhookSend(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		got = string(buf)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL)
	require.NoError(t, w.Send(context.Background(), "hello"))
	assert.Contains(t, got, `"text":"hello"`)
}

func TestWebhookServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	assert.Error(t, NewWebhook(srv.URL).Send(context.Background(), "hello"))
	assert.Error(t, NewWebhook("").Send(context.Background(), "hello"))
}

func TestTelegramMisconfigured(t *testing.T) {
	assert.Error(t, NewTelegram("", "").Send(context.Background(), "hello"))
}

func TestRenderReport(t *testing.T) {
	out := RenderReport("2025-03-15", []*types.NewsItem{
		{Title: "big story", SourceName: "Hacker News", Importance: types.ImportanceCritical, URL: "https://a"},
		{Title: "other", SourceName: "Weibo", Importance: types.ImportanceHigh},
	})
	assert.Contains(t, out, "2025-03-15")
	assert.Contains(t, out, "1. [critical] big story (Hacker News)")
	assert.Contains(t, out, "https://a")
	assert.Contains(t, out, "2. [high] other (Weibo)")
}
