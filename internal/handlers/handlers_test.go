package handlers_test

import (
	"bytes"
	"chatcord-backend/internal/authz"
	"chatcord-backend/internal/dm"
	"chatcord-backend/internal/friends"
	"chatcord-backend/internal/handlers"
	"chatcord-backend/internal/jwt"
	"chatcord-backend/internal/messages"
	"chatcord-backend/internal/metrics"
	"chatcord-backend/internal/models"
	"chatcord-backend/internal/profiles"
	"chatcord-backend/internal/servers"
	"chatcord-backend/internal/testutil"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type testServer struct {
	t        *testing.T
	router   http.Handler
	verifier *jwt.Verifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := testutil.Config(t)
	cfg.MetricsEnabled = true

	db := testutil.DB(t)
	sugar := testutil.Logger()
	kv := testutil.KV(t)
	ids := testutil.IDs(t)
	gate := authz.NewGate(db, kv, sugar)
	verifier := jwt.NewVerifier(cfg.JwtSecret, false)

	profileService := profiles.New(db, sugar, cfg.DefaultAvatar)
	dmService := dm.New(db, sugar, ids)

	h := handlers.New(sugar, verifier, kv, metrics.New(), handlers.Services{
		Profiles: profileService,
		Friends:  friends.New(db, sugar, cfg.FriendPolicy),
		Servers:  servers.New(db, sugar, ids, gate),
		DMs:      dmService,
		Messages: messages.New(db, sugar, ids, gate, dmService, profileService),
	})

	return &testServer{t: t, router: handlers.NewRouter(cfg, h), verifier: verifier}
}

// do sends a request as userID, 0 sends it without a token.
func (s *testServer) do(userID int64, method string, target string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if userID != 0 {
		cookie, err := s.verifier.CreateToken(false, userID)
		if err != nil {
			s.t.Fatal(err)
		}
		req.Header.Set("Authorization", "Bearer "+cookie.Value)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) mustDo(userID int64, method string, target string, body any, out any) {
	s.t.Helper()

	rec := s.do(userID, method, target, body)
	if rec.Code != http.StatusOK {
		s.t.Fatalf("%s %s = %d %q, want 200", method, target, rec.Code, rec.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			s.t.Fatalf("decoding %s %s: %v", method, target, err)
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(0, http.MethodGet, "/api/test", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "Hello world!" {
		t.Errorf("/api/test = %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response has no request ID")
	}

	rec = s.do(0, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "chatcord_http_request_duration_seconds") {
		t.Errorf("/metrics = %d, missing request histogram", rec.Code)
	}
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		setup      func(req *http.Request)
		wantStatus int
	}{
		{
			name:       "No token",
			setup:      func(req *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Garbage bearer token",
			setup:      func(req *http.Request) { req.Header.Set("Authorization", "Bearer nope") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "Token signed with another secret",
			setup: func(req *http.Request) {
				cookie, err := jwt.NewVerifier("other", false).CreateToken(false, 5)
				if err != nil {
					t.Fatal(err)
				}
				req.AddCookie(&cookie)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "Valid cookie",
			setup: func(req *http.Request) {
				cookie, err := s.verifier.CreateToken(false, 5)
				if err != nil {
					t.Fatal(err)
				}
				req.AddCookie(&cookie)
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/user/fetch?userID=self", nil)
			tc.setup(req)

			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}

func TestProfileCreatedOnFirstRequest(t *testing.T) {
	s := newTestServer(t)

	var profile models.Profile
	s.mustDo(7, http.MethodGet, "/api/user/fetch?userID=self", nil, &profile)

	if profile.ID != 7 || !strings.HasPrefix(profile.DisplayName, "User") || profile.Avatar != "default.webp" {
		t.Errorf("unexpected generated profile %+v", profile)
	}

	s.mustDo(7, http.MethodPost, "/api/user/update", map[string]string{"displayName": "gopher"}, nil)

	var found models.Profile
	s.mustDo(8, http.MethodGet, "/api/user/search?displayName=gopher", nil, &found)
	if found.ID != 7 {
		t.Errorf("search found %+v, want user 7", found)
	}

	if rec := s.do(8, http.MethodGet, "/api/user/fetch?userID=999", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown user = %d, want 404", rec.Code)
	}
	if rec := s.do(8, http.MethodGet, "/api/user/fetch?userID=abc", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed user ID = %d, want 400", rec.Code)
	}
}

func TestServerChannelMessageFlow(t *testing.T) {
	s := newTestServer(t)

	const owner, member, outsider = 1, 2, 3
	for _, userID := range []int64{owner, member, outsider} {
		s.mustDo(userID, http.MethodGet, "/api/user/fetch?userID=self", nil, nil)
	}

	var server models.Server
	s.mustDo(owner, http.MethodPost, "/api/server/create", map[string]string{"name": "Test"}, &server)

	var channels []models.Channel
	s.mustDo(owner, http.MethodGet, fmt.Sprintf("/api/channel/fetch?serverID=%d", server.ID), nil, &channels)
	if len(channels) != 1 || channels[0].Name != "general" {
		t.Fatalf("channels = %+v, want only general", channels)
	}
	general := channels[0]

	var members []models.Profile
	s.mustDo(owner, http.MethodGet, fmt.Sprintf("/api/members/fetch?serverID=%d", server.ID), nil, &members)
	if len(members) != 1 || members[0].ID != owner {
		t.Fatalf("members = %+v, want the owner", members)
	}

	joinPath := fmt.Sprintf("/api/server/join?serverID=%d", server.ID)
	s.mustDo(member, http.MethodPost, joinPath, nil, nil)
	if rec := s.do(member, http.MethodPost, joinPath, nil); rec.Code != http.StatusConflict {
		t.Errorf("second join = %d, want 409", rec.Code)
	}

	s.mustDo(owner, http.MethodPost, "/api/message/create", map[string]string{
		"content":   "hi",
		"channelID": fmt.Sprint(general.ID),
	}, nil)

	fetchPath := fmt.Sprintf("/api/message/fetch?kind=channel&targetID=%d", general.ID)

	var messageList []models.Message
	s.mustDo(member, http.MethodGet, fetchPath, nil, &messageList)
	if len(messageList) != 1 || messageList[0].Content != "hi" || messageList[0].AuthorID != owner {
		t.Fatalf("messages = %+v, want one \"hi\" from the owner", messageList)
	}

	if rec := s.do(outsider, http.MethodGet, fetchPath, nil); rec.Code != http.StatusForbidden {
		t.Errorf("outsider reading = %d, want 403", rec.Code)
	}

	var empty []models.Message
	s.mustDo(member, http.MethodGet, "/api/message/fetch?kind=channel&targetID=general", nil, &empty)
	if len(empty) != 0 {
		t.Errorf("non numeric target returned %d messages", len(empty))
	}

	rec := s.do(owner, http.MethodPost, "/api/message/create", map[string]string{"content": "hi"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("message without target = %d, want 400", rec.Code)
	}

	deleteMessage := fmt.Sprintf("/api/message/delete?messageID=%d&serverID=%d", messageList[0].ID, server.ID)
	if rec := s.do(member, http.MethodPost, deleteMessage, nil); rec.Code != http.StatusForbidden {
		t.Errorf("member deleting message = %d, want 403", rec.Code)
	}
	s.mustDo(owner, http.MethodPost, deleteMessage, nil, nil)

	kickPath := fmt.Sprintf("/api/server/kick?serverID=%d&userID=%d", server.ID, member)
	if rec := s.do(member, http.MethodPost, kickPath, nil); rec.Code != http.StatusForbidden {
		t.Errorf("member kicking = %d, want 403", rec.Code)
	}
	s.mustDo(owner, http.MethodPost, kickPath, nil, nil)

	deletePath := fmt.Sprintf("/api/server/delete?serverID=%d", server.ID)
	if rec := s.do(member, http.MethodPost, deletePath, nil); rec.Code != http.StatusForbidden {
		t.Errorf("member deleting server = %d, want 403", rec.Code)
	}
	s.mustDo(owner, http.MethodPost, deletePath, nil, nil)

	var serverList []models.Server
	s.mustDo(owner, http.MethodGet, "/api/server/fetch", nil, &serverList)
	if len(serverList) != 0 {
		t.Errorf("owner still lists %d servers", len(serverList))
	}
}

func TestFriendsAndDirectMessages(t *testing.T) {
	s := newTestServer(t)

	const alice, bob = 10, 20
	s.mustDo(alice, http.MethodGet, "/api/user/fetch?userID=self", nil, nil)
	s.mustDo(bob, http.MethodGet, "/api/user/fetch?userID=self", nil, nil)

	s.mustDo(alice, http.MethodPost, fmt.Sprintf("/api/friend/add?friendID=%d", bob), nil, nil)

	var bobFriends []models.Profile
	s.mustDo(bob, http.MethodGet, "/api/friend/fetch", nil, &bobFriends)
	if len(bobFriends) != 1 || bobFriends[0].ID != alice {
		t.Errorf("bob's friends = %+v, want alice", bobFriends)
	}

	var fromAlice, fromBob models.DMRoom
	s.mustDo(alice, http.MethodPost, fmt.Sprintf("/api/dm/open?userID=%d", bob), nil, &fromAlice)
	s.mustDo(bob, http.MethodPost, fmt.Sprintf("/api/dm/open?userID=%d", alice), nil, &fromBob)
	if fromAlice.ID != fromBob.ID {
		t.Fatalf("alice got room %d, bob got room %d", fromAlice.ID, fromBob.ID)
	}

	s.mustDo(bob, http.MethodPost, "/api/message/create", map[string]string{
		"content":  "hey",
		"dmRoomID": fmt.Sprint(fromBob.ID),
	}, nil)

	var messageList []models.Message
	s.mustDo(alice, http.MethodGet, fmt.Sprintf("/api/message/fetch?kind=dm&targetID=%d&limit=10", fromAlice.ID), nil, &messageList)
	if len(messageList) != 1 || messageList[0].Content != "hey" {
		t.Errorf("DM messages = %+v", messageList)
	}

	var rooms []models.DMRoom
	s.mustDo(alice, http.MethodGet, "/api/dm/fetch", nil, &rooms)
	if len(rooms) != 1 || rooms[0].Other == nil || rooms[0].Other.ID != bob {
		t.Errorf("alice's rooms = %+v", rooms)
	}

	if rec := s.do(alice, http.MethodPost, fmt.Sprintf("/api/dm/open?userID=%d", alice), nil); rec.Code != http.StatusBadRequest {
		t.Errorf("room with yourself = %d, want 400", rec.Code)
	}
}
