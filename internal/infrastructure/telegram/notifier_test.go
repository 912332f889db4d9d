package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendPostsHTMLMessage(t *testing.T) {
	t.Parallel()

	var gotPath, gotText, gotMode, gotChat string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotText = r.FormValue("text")
		gotMode = r.FormValue("parse_mode")
		gotChat = r.FormValue("chat_id")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewNotifier("token123", "chat456")
	n.apiBase = server.URL
	n.client = server.Client()

	msg := "Buen día equipo\n\n<b>Norma A</b>\nsumilla"
	if err := n.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if !strings.Contains(gotPath, "bottoken123/sendMessage") {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotText != msg || gotMode != "HTML" || gotChat != "chat456" {
		t.Fatalf("unexpected form: text=%q mode=%q chat=%q", gotText, gotMode, gotChat)
	}
}

func TestSendErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	n := NewNotifier("token", "chat")
	n.apiBase = server.URL
	n.client = server.Client()

	if err := n.Send(context.Background(), "x"); err == nil {
		t.Fatal("expected error on non-200 response")
	}

	if err := (&Notifier{}).Send(context.Background(), "x"); err == nil {
		t.Fatal("expected error when misconfigured")
	}
}
