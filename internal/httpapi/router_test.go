package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shardchat/shardchat/internal/config"
	"github.com/shardchat/shardchat/internal/httpapi"
	"github.com/shardchat/shardchat/internal/replica"
	"github.com/shardchat/shardchat/internal/room"
	"github.com/shardchat/shardchat/internal/store/sqlite"
)

func newTestRouter(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	resolver := sqlite.NewResolver(t.TempDir(), "")
	agg, err := resolver.Aggregate()
	if err != nil {
		t.Fatalf("open aggregate: %v", err)
	}
	svc := room.NewService(resolver, replica.NewSync(agg), room.ServiceOptions{
		PresenceWindow: cfg.PresenceWindow,
	})
	return httpapi.NewRouter(cfg, svc, resolver)
}

func doJSON(t *testing.T, r http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type sentResp struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type msgResp struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func TestSendAndReadBack(t *testing.T) {
	r := newTestRouter(t, config.Config{})

	w := doJSON(t, r, http.MethodPost, "/general/send", `{"username":"alice","message":"hi"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("send status %d body %s", w.Code, w.Body.String())
	}
	var sent sentResp
	if err := json.Unmarshal(w.Body.Bytes(), &sent); err != nil {
		t.Fatalf("decode send response: %v", err)
	}
	if sent.ID == "" || sent.CreatedAt.IsZero() {
		t.Fatalf("incomplete send response: %+v", sent)
	}

	w = doJSON(t, r, http.MethodGet, "/general/messages?limit=10", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("messages status %d body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("unexpected content type %q", ct)
	}
	var msgs []msgResp
	if err := json.Unmarshal(w.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("decode messages: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	m := msgs[0]
	if m.ID != sent.ID || m.RoomID != "general" || m.Username != "alice" || m.Message != "hi" {
		t.Fatalf("unexpected message row: %+v", m)
	}

	// the same row, same id, is readable through the aggregate
	w = doJSON(t, r, http.MethodGet, "/aggregate/messages?limit=10", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("aggregate status %d", w.Code)
	}
	var aggMsgs []msgResp
	if err := json.Unmarshal(w.Body.Bytes(), &aggMsgs); err != nil {
		t.Fatalf("decode aggregate messages: %v", err)
	}
	if len(aggMsgs) != 1 || aggMsgs[0].ID != sent.ID {
		t.Fatalf("expected mirrored message in aggregate, got %+v", aggMsgs)
	}
}

func TestSend_Rejects(t *testing.T) {
	r := newTestRouter(t, config.Config{})

	cases := map[string]string{
		"not json":         `{{`,
		"missing username": `{"message":"hi"}`,
		"missing message":  `{"username":"alice"}`,
		"empty fields":     `{"username":"","message":""}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/general/send", body, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d body %s", w.Code, w.Body.String())
			}
			var e map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil || e["error"] == "" {
				t.Fatalf("expected error body, got %s", w.Body.String())
			}
		})
	}
}

func TestMessages_BadQueryParams(t *testing.T) {
	r := newTestRouter(t, config.Config{})

	w := doJSON(t, r, http.MethodGet, "/general/messages?limit=abc", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/general/messages?before=yesterday", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad cursor, got %d", w.Code)
	}
}

func TestUsers_ListsActiveSender(t *testing.T) {
	r := newTestRouter(t, config.Config{PresenceWindow: 5 * time.Minute})

	w := doJSON(t, r, http.MethodPost, "/general/send", `{"username":"alice","message":"hi"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("send status %d", w.Code)
	}
	var sent sentResp
	if err := json.Unmarshal(w.Body.Bytes(), &sent); err != nil {
		t.Fatalf("decode send: %v", err)
	}

	w = doJSON(t, r, http.MethodGet, "/general/users", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("users status %d", w.Code)
	}
	var users []struct {
		Username string    `json:"username"`
		LastSeen time.Time `json:"last_seen"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &users); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	if len(users) != 1 || users[0].Username != "alice" {
		t.Fatalf("expected alice, got %+v", users)
	}
	if !users[0].LastSeen.Equal(sent.CreatedAt) {
		t.Fatalf("last_seen %v does not match send time %v", users[0].LastSeen, sent.CreatedAt)
	}
}

func TestRoomIsolationOverHTTP(t *testing.T) {
	r := newTestRouter(t, config.Config{})

	w := doJSON(t, r, http.MethodPost, "/alpha/send", `{"username":"alice","message":"only alpha"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("send status %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/beta/messages", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("beta messages status %d", w.Code)
	}
	var msgs []msgResp
	if err := json.Unmarshal(w.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("beta must not see alpha's messages: %+v", msgs)
	}
}

func TestAdminSurface_Gated(t *testing.T) {
	r := newTestRouter(t, config.Config{AdminSecret: "s3cret"})

	w := doJSON(t, r, http.MethodGet, "/general/api/db/tables", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/general/api/db/tables", "", map[string]string{
		"Authorization": "Bearer wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/general/api/db/tables", "", map[string]string{
		"Authorization": "Bearer s3cret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with secret, got %d body %s", w.Code, w.Body.String())
	}
	var tables struct {
		Tables []string `json:"tables"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &tables); err != nil {
		t.Fatalf("decode tables: %v", err)
	}
	if len(tables.Tables) == 0 {
		t.Fatalf("expected provisioned tables, got none")
	}

	w = doJSON(t, r, http.MethodGet, "/general/api/db/tables/messages/count", "", map[string]string{
		"Authorization": "Bearer s3cret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for count, got %d body %s", w.Code, w.Body.String())
	}
}

func TestAdminSurface_DisabledWithoutSecret(t *testing.T) {
	r := newTestRouter(t, config.Config{})

	w := doJSON(t, r, http.MethodGet, "/general/api/db/tables", "", map[string]string{
		"Authorization": "Bearer anything",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 when no secret configured, got %d", w.Code)
	}
}

func TestStaticPages(t *testing.T) {
	r := newTestRouter(t, config.Config{})

	w := doJSON(t, r, http.MethodGet, "/", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("landing status %d", w.Code)
	}
	w = doJSON(t, r, http.MethodGet, "/general", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("room page status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "general") {
		t.Fatalf("room page should mention the room id")
	}
}
