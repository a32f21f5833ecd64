package googleapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"action-dispatch-service/internal/config"
	"action-dispatch-service/internal/executor"
)

type staticTokens struct{ token string }

func (s staticTokens) Token(context.Context) (string, error) { return s.token, nil }

func newTestClient(srvURL string) *Client {
	cfg := config.Config{
		ProviderTimeout: 2 * time.Second,
		CalendarBaseURL: srvURL + "/calendar/v3",
		GmailBaseURL:    srvURL + "/gmail/v1",
		SheetsBaseURL:   srvURL + "/sheets/v4",
		DocsBaseURL:     srvURL + "/docs/v1",
		DriveBaseURL:    srvURL + "/drive/v3",
	}
	return New(cfg, staticTokens{token: "tok"})
}

func TestCreateEvent(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"evt-1","htmlLink":"https://cal/e","hangoutLink":"https://meet/x"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	ev, err := c.CreateEvent(context.Background(), executor.CalendarEventRequest{
		CalendarID:          "primary",
		Summary:             "Sync",
		Start:               time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		End:                 time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		TimeZone:            "UTC",
		ConferenceRequestID: "act-1-42",
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if ev.ID != "evt-1" || ev.MeetLink != "https://meet/x" {
		t.Fatalf("event=%+v", ev)
	}
	if gotPath != "/calendar/v3/calendars/primary/events" {
		t.Fatalf("path=%q", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("auth=%q", gotAuth)
	}
	conf, ok := gotBody["conferenceData"].(map[string]any)
	if !ok {
		t.Fatalf("conferenceData missing: %v", gotBody)
	}
	createReq := conf["createRequest"].(map[string]any)
	if createReq["requestId"] != "act-1-42" {
		t.Fatalf("requestId=%v", createReq["requestId"])
	}
}

func TestSendEncodesRaw(t *testing.T) {
	var gotBody struct {
		Raw string `json:"raw"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg-1"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	msg := []byte("To: a@b.c\r\nSubject: hi\r\n\r\nbody")
	id, err := c.Send(context.Background(), msg)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != "msg-1" {
		t.Fatalf("id=%q", id)
	}
	decoded, err := base64.RawURLEncoding.DecodeString(gotBody.Raw)
	if err != nil {
		t.Fatalf("decode raw: %v", err)
	}
	if string(decoded) != string(msg) {
		t.Fatalf("raw roundtrip mismatch: %q", decoded)
	}
}

func TestProviderErrorIncludesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"insufficient permissions"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.CreateSpreadsheet(context.Background(), "Log")
	if err == nil {
		t.Fatal("expected error")
	}
	if want := "insufficient permissions"; !strings.Contains(err.Error(), want) {
		t.Fatalf("err=%v, want body mention of %q", err, want)
	}
}
