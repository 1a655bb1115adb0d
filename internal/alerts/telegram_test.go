package alerts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"lusd-sp-engine/internal/config"
)

func TestSendPostsMessage(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	tg := newTelegram(config.TelegramConfig{Enabled: true, Token: "tok", ChatID: "123"}, zap.NewNop(), server.URL, server.Client())
	if err := tg.Send(context.Background(), "harvest done"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotPath != "/bottok/sendMessage" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotBody["chat_id"] != "123" || gotBody["text"] != "harvest done" {
		t.Fatalf("body = %v", gotBody)
	}
}

func TestSendDisabledIsNoop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("disabled telegram must not call out")
	}))
	defer server.Close()

	tg := newTelegram(config.TelegramConfig{Enabled: false}, zap.NewNop(), server.URL, server.Client())
	if err := tg.Send(context.Background(), "ignored"); err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func TestSendSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer server.Close()

	tg := newTelegram(config.TelegramConfig{Enabled: true, Token: "tok", ChatID: "123"}, zap.NewNop(), server.URL, server.Client())
	err := tg.Send(context.Background(), "hello")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("Send error = %v, want chat not found", err)
	}
}

func TestGetUpdatesParsesResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("offset"); got != "7" {
			t.Errorf("offset = %q, want 7", got)
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":[
			{"update_id":7,"message":{"text":"/status","chat":{"id":123},"from":{"id":42,"username":"ops"}}}
		]}`))
	}))
	defer server.Close()

	tg := newTelegram(config.TelegramConfig{Enabled: true, Token: "tok", ChatID: "123"}, zap.NewNop(), server.URL, server.Client())
	updates, err := tg.GetUpdates(context.Background(), 7, 0)
	if err != nil {
		t.Fatalf("GetUpdates: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("got %d updates, want 1", len(updates))
	}
	upd := updates[0]
	if upd.UpdateID != 7 || upd.Message == nil || upd.Message.Text != "/status" {
		t.Fatalf("update = %+v", upd)
	}
	if upd.Message.Chat.ID != 123 || upd.Message.From.ID != 42 {
		t.Fatalf("message meta = %+v", upd.Message)
	}
}

func TestGetUpdatesDisabledReturnsNothing(t *testing.T) {
	tg := newTelegram(config.TelegramConfig{Enabled: false}, zap.NewNop(), "http://unused", nil)
	updates, err := tg.GetUpdates(context.Background(), 0, 0)
	if err != nil || updates != nil {
		t.Fatalf("GetUpdates disabled = (%v, %v), want nil/nil", updates, err)
	}
}
