package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/matheus3301/chatwire/internal/domain"
)

// fakeBackend routes "METHOD /path" to canned handlers and records requests.
type fakeBackend struct {
	t        *testing.T
	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []*http.Request
	bodies   []string
}

func newFakeBackend(t *testing.T) (*fakeBackend, *Client) {
	t.Helper()
	fb := &fakeBackend{t: t, routes: map[string]http.HandlerFunc{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fb.mu.Lock()
		fb.requests = append(fb.requests, r)
		fb.bodies = append(fb.bodies, string(body))
		h, ok := fb.routes[r.Method+" "+r.URL.Path]
		fb.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return fb, New(srv.URL, srv.Client(), nil)
}

func (fb *fakeBackend) handle(route string, status int, body string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.routes[route] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func (fb *fakeBackend) last() (*http.Request, string) {
	fb.t.Helper()
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if len(fb.requests) == 0 {
		fb.t.Fatal("no request recorded")
	}
	i := len(fb.requests) - 1
	return fb.requests[i], fb.bodies[i]
}

func TestLoginSuccess(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.handle("POST /api/v1/auth/login", 200,
		`{"status":200,"message":"ok","data":{"token":"tok","user":{"_id":"u1","username":"alice"}}}`)

	s, err := c.Login(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if s.Identity.ID != "u1" || s.Credential.AccessToken != "tok" {
		t.Errorf("session = %+v", s)
	}

	_, body := fb.last()
	var sent map[string]string
	if err := json.Unmarshal([]byte(body), &sent); err != nil {
		t.Fatal(err)
	}
	if sent["username"] != "alice" || sent["password"] != "pw" {
		t.Errorf("login body = %v", sent)
	}
}

func TestLoginRejected(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"401", 401, `{"status":401,"message":"Invalid credentials","data":null}`},
		{"2xx without data", 200, `{"status":200,"message":"nope","data":null}`},
		{"missing token", 200, `{"status":200,"data":{"user":{"id":"u1"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, c := newFakeBackend(t)
			fb.handle("POST /api/v1/auth/login", tt.status, tt.body)

			_, err := c.Login(context.Background(), "alice", "bad")
			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("error = %T %v, want *AuthError", err, err)
			}
		})
	}
}

func TestLoginServerErrorIsBackendError(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.handle("POST /api/v1/auth/login", 500, `{"status":500,"message":"boom","data":null}`)

	_, err := c.Login(context.Background(), "alice", "pw")
	var be *BackendError
	if !errors.As(err, &be) || be.Status != 500 || be.Message != "boom" {
		t.Errorf("error = %v, want BackendError 500 boom", err)
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, nil, nil)
	_, err := c.ListChats(context.Background())
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("error = %T %v, want *NetworkError", err, err)
	}
	if ne.Op != "list chats" {
		t.Errorf("Op = %q", ne.Op)
	}
}

func TestBearerAndRequestID(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.handle("GET /api/v1/chat/user-chats", 200, `{"status":200,"data":{"chats":[]}}`)

	c.SetCredential(domain.Credential{AccessToken: "tok"})
	if _, err := c.ListChats(context.Background()); err != nil {
		t.Fatal(err)
	}
	req, _ := fb.last()
	if got := req.Header.Get("Authorization"); got != "Bearer tok" {
		t.Errorf("Authorization = %q", got)
	}
	if req.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}

	c.ClearCredential()
	if _, err := c.ListChats(context.Background()); err != nil {
		t.Fatal(err)
	}
	req, _ = fb.last()
	if got := req.Header.Get("Authorization"); got != "" {
		t.Errorf("Authorization after clear = %q", got)
	}
}

func TestListChats(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.handle("GET /api/v1/chat/user-chats", 200,
		`{"status":200,"data":{"chats":[{"_id":"c1","type":"private","participants":["u1","u2"]},{"name":"bad"},{"id":"c2","type":"group","name":"team","participants":[]}]}}`)

	chats, err := c.ListChats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(chats) != 2 || chats[0].ID != "c1" || chats[1].ID != "c2" {
		t.Errorf("chats = %+v, want c1,c2 with invalid entry skipped", chats)
	}
}

func TestListMessagesQuery(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.handle("GET /api/v1/chat/messages/c1", 200,
		`{"status":200,"data":{"messages":[{"_id":"m2","chatId":"c1","senderId":"u","content":"b"},{"_id":"m1","chatId":"c1","senderId":"u","content":"a"}]}}`)

	msgs, err := c.ListMessages(context.Background(), "c1", 1, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].ID != "m2" {
		t.Errorf("messages = %+v, want wire order preserved", msgs)
	}
	req, _ := fb.last()
	if req.URL.Query().Get("page") != "1" || req.URL.Query().Get("limit") != "50" {
		t.Errorf("query = %q", req.URL.RawQuery)
	}
}

func TestSendMessageDefaultsType(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.handle("POST /api/v1/chat/message", 201,
		`{"status":201,"data":{"message":{"_id":"m9","chatId":"c1","senderId":"u1","content":"hi"}}}`)

	m, err := c.SendMessage(context.Background(), "c1", "hi", "")
	if err != nil {
		t.Fatal(err)
	}
	if m.ID != "m9" || m.Type != domain.MessageText {
		t.Errorf("message = %+v", m)
	}
	_, body := fb.last()
	if !strings.Contains(body, `"type":"text"`) {
		t.Errorf("body = %s, want type text", body)
	}
}

func TestEnvelopeStatusFailure(t *testing.T) {
	fb, c := newFakeBackend(t)
	fb.handle("POST /api/v1/chat/private", 200, `{"status":404,"message":"User not found","data":null}`)

	_, err := c.CreatePrivateChat(context.Background(), "ghost")
	var be *BackendError
	if !errors.As(err, &be) || be.Status != 404 {
		t.Fatalf("error = %v, want BackendError 404", err)
	}
	if got := UserMessage(err); got != "User not found" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestParticipantRoutes(t *testing.T) {
	fb, c := newFakeBackend(t)
	chat := `{"status":200,"data":{"chat":{"_id":"g1","type":"group","name":"team","participants":["a","b"]}}}`
	fb.handle("POST /api/v1/chat/g1/participants", 200, chat)
	fb.handle("DELETE /api/v1/chat/g1/participants/b", 200, chat)
	fb.handle("POST /api/v1/chat/group", 201, chat)

	g, err := c.CreateGroupChat(context.Background(), "team", []string{"a", "b"})
	if err != nil || g.ID != "g1" {
		t.Fatalf("CreateGroupChat() = %+v, %v", g, err)
	}
	if _, err := c.AddParticipant(context.Background(), "g1", "b"); err != nil {
		t.Fatal(err)
	}
	_, body := fb.last()
	if !strings.Contains(body, `"participantId":"b"`) {
		t.Errorf("add body = %s", body)
	}
	if _, err := c.RemoveParticipant(context.Background(), "g1", "b"); err != nil {
		t.Fatal(err)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&AuthError{Reason: "bad password"}, "Login failed: bad password"},
		{&NetworkError{Op: "x", Err: errors.New("refused")}, "Cannot reach the server. Check your connection."},
		{&BackendError{Status: 500}, "Request failed: Internal Server Error"},
		{errors.New("other"), "other"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
