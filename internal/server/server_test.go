package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/julianstephens/huddle/internal/errors"
	"github.com/julianstephens/huddle/internal/interaction"
	"github.com/julianstephens/huddle/internal/models"
	"github.com/julianstephens/huddle/internal/service"
	"github.com/julianstephens/huddle/internal/stats"
	"github.com/julianstephens/huddle/internal/storage/sqlite"
)

const (
	testSecret = "test-secret"
	testIssuer = "https://identity.example"
)

var fixedNow = time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "huddle.db"))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { store.Close() })

	svc := service.New(store, service.WithEngine(stats.NewEngine(time.UTC, func() time.Time { return fixedNow })))
	srv := New(svc, Options{TokenSecret: testSecret, TokenIssuer: testIssuer, AccessLog: io.Discard})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func sign(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func tokenFor(t *testing.T, sub string) string {
	return sign(t, jwt.MapClaims{
		"sub":  sub,
		"name": "User " + sub,
		"iss":  testIssuer,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}, testSecret)
}

type client struct {
	t     *testing.T
	base  string
	token string
	lang  string
}

func (c client) do(method, path string, body any) (int, []byte) {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	require.NoError(c.t, err)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.lang != "" {
		req.Header.Set("Accept-Language", c.lang)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer res.Body.Close()
	out, err := io.ReadAll(res.Body)
	require.NoError(c.t, err)
	return res.StatusCode, out
}

func (c client) decode(method, path string, body any, wantStatus int, v any) {
	c.t.Helper()
	status, out := c.do(method, path, body)
	require.Equal(c.t, wantStatus, status, string(out))
	if v != nil {
		require.NoError(c.t, json.Unmarshal(out, v))
	}
}

func as(t *testing.T, ts *httptest.Server, sub string) client {
	return client{t: t, base: ts.URL + apiPrefix, token: tokenFor(t, sub)}
}

func errorOf(t *testing.T, body []byte) string {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(body, &e))
	return e.Error
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t)
	c := client{t: t, base: ts.URL}

	var body map[string]string
	c.decode(http.MethodGet, "/healthz", nil, http.StatusOK, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestAuthentication(t *testing.T) {
	ts := setupTestServer(t)
	base := ts.URL + apiPrefix

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage", "not-a-jwt"},
		{"wrong secret", sign(t, jwt.MapClaims{"sub": "alice", "iss": testIssuer}, "other")},
		{"wrong issuer", sign(t, jwt.MapClaims{"sub": "alice", "iss": "https://evil.example"}, testSecret)},
		{"expired", sign(t, jwt.MapClaims{"sub": "alice", "iss": testIssuer, "exp": time.Now().Add(-time.Hour).Unix()}, testSecret)},
		{"no subject", sign(t, jwt.MapClaims{"iss": testIssuer}, testSecret)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := client{t: t, base: base, token: tt.token}.do(http.MethodGet, "/me", nil)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.NotEmpty(t, errorOf(t, body))
		})
	}

	var me models.User
	as(t, ts, "alice").decode(http.MethodGet, "/me", nil, http.StatusOK, &me)
	assert.Equal(t, "alice", me.ID)
	assert.Equal(t, "User alice", me.Name)
}

func TestProfile(t *testing.T) {
	ts := setupTestServer(t)
	alice := as(t, ts, "alice")

	var me models.User
	alice.decode(http.MethodPatch, "/me", map[string]string{"bio": "Early riser"}, http.StatusOK, &me)
	assert.Equal(t, "Early riser", me.Bio)

	as(t, ts, "bob").decode(http.MethodGet, "/users/alice", nil, http.StatusOK, &me)
	assert.Equal(t, "Early riser", me.Bio)

	status, _ := alice.do(http.MethodGet, "/users/ghost", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body := alice.do(http.MethodPatch, "/me", map[string]string{"nickname": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errorOf(t, body), "malformed request body")
}

func TestHabitEndpoints(t *testing.T) {
	ts := setupTestServer(t)
	alice := as(t, ts, "alice")

	var h models.Habit
	alice.decode(http.MethodPost, "/habits", service.NewHabit{Name: "Read", Icon: "📖"}, http.StatusCreated, &h)
	assert.Equal(t, "purple", h.Color)

	status, _ := alice.do(http.MethodPost, "/habits", service.NewHabit{Name: "Read"})
	assert.Equal(t, http.StatusConflict, status)

	for _, d := range []string{"2024-03-14", "2024-03-15"} {
		alice.decode(http.MethodPost, "/habits/"+h.ID+"/logs", logRequest{Date: d, Note: "pages"}, http.StatusOK, nil)
	}
	status, _ = alice.do(http.MethodPost, "/habits/"+h.ID+"/logs", logRequest{Date: "2024-03-16"})
	assert.Equal(t, http.StatusBadRequest, status)

	var logs []models.HabitLog
	alice.decode(http.MethodGet, "/habits/"+h.ID+"/logs?from=2024-03-15", nil, http.StatusOK, &logs)
	require.Len(t, logs, 1)

	var edited models.HabitLog
	alice.decode(http.MethodPatch, "/logs/"+logs[0].ID, noteRequest{Note: "50 pages"}, http.StatusOK, &edited)
	assert.Equal(t, "50 pages", edited.Note)

	var habits []models.Habit
	alice.decode(http.MethodGet, "/habits", nil, http.StatusOK, &habits)
	require.Len(t, habits, 1)
	assert.Equal(t, 2, habits[0].Streak)

	var st models.Stats
	alice.decode(http.MethodGet, "/me/stats", nil, http.StatusOK, &st)
	assert.Equal(t, 2, st.MaxStreak)
	assert.Equal(t, 7, st.CheckinConsistency)

	status, _ = as(t, ts, "bob").do(http.MethodDelete, "/habits/"+h.ID, nil)
	assert.Equal(t, http.StatusForbidden, status)

	alice.decode(http.MethodDelete, "/logs/"+logs[0].ID, nil, http.StatusNoContent, nil)
	alice.decode(http.MethodDelete, "/habits/"+h.ID, nil, http.StatusNoContent, nil)
	status, _ = alice.do(http.MethodGet, "/habits/"+h.ID+"/logs", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGroupFeedEndpoints(t *testing.T) {
	ts := setupTestServer(t)
	alice := as(t, ts, "alice")
	bob := as(t, ts, "bob")
	bob.decode(http.MethodGet, "/me", nil, http.StatusOK, nil)

	var g models.HabitGroup
	alice.decode(http.MethodPost, "/groups", service.NewGroup{
		Name: "Runners", Category: "physical_health", Description: "5k club", Rules: "Be kind",
	}, http.StatusCreated, &g)
	assert.Equal(t, "5k club\n\n**Rules:**\nBe kind", g.Description)

	bob.lang = "id-ID,id;q=0.9"
	var found []models.HabitGroup
	bob.decode(http.MethodGet, "/groups?q=RUN", nil, http.StatusOK, &found)
	require.Len(t, found, 1)
	assert.Equal(t, "Kesehatan Fisik & Kebugaran", found[0].Tag.Text)

	var joined models.HabitGroup
	bob.decode(http.MethodPost, "/groups/"+g.ID+"/join", nil, http.StatusOK, &joined)
	assert.Equal(t, 2, joined.MemberCount)
	status, _ := bob.do(http.MethodPost, "/groups/"+g.ID+"/join", nil)
	assert.Equal(t, http.StatusConflict, status)

	var p models.Post
	alice.decode(http.MethodPost, "/groups/"+g.ID+"/posts", postRequest{Note: "First 5k!"}, http.StatusCreated, &p)

	var reacted models.Post
	bob.decode(http.MethodPost, "/posts/"+p.ID+"/interactions", reactRequest{Kind: "support"}, http.StatusOK, &reacted)
	assert.Equal(t, 1, reacted.Supports)
	assert.Equal(t, []string{"bob"}, reacted.SupportedBy)

	bob.decode(http.MethodPost, "/posts/"+p.ID+"/interactions", reactRequest{Kind: "push"}, http.StatusOK, &reacted)
	assert.Equal(t, 0, reacted.Supports)
	assert.Equal(t, 1, reacted.Pushes)

	status, body := bob.do(http.MethodPost, "/posts/"+p.ID+"/interactions", reactRequest{Kind: "love"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errorOf(t, body), "unknown interaction kind")

	var commented models.Post
	bob.decode(http.MethodPost, "/posts/"+p.ID+"/comments", commentRequest{Text: "Hebat!"}, http.StatusCreated, &commented)
	require.Len(t, commented.Comments, 1)
	status, _ = bob.do(http.MethodPost, "/posts/"+p.ID+"/comments", commentRequest{Text: "  "})
	assert.Equal(t, http.StatusBadRequest, status)

	var feed []models.Post
	bob.decode(http.MethodGet, "/groups/"+g.ID+"/posts", nil, http.StatusOK, &feed)
	require.Len(t, feed, 1)
	assert.Equal(t, 1, feed[0].Pushes)

	alice.lang = "id"
	var notes notificationList
	alice.decode(http.MethodGet, "/notifications", nil, http.StatusOK, &notes)
	assert.Equal(t, 3, notes.UnreadCount)
	require.Len(t, notes.Notifications, 3)
	assert.Contains(t, []string{
		"User bob mengomentari postingan Anda.",
		"User bob mengirimi Anda dorongan.",
		"User bob memberi Anda semangat!",
	}, notes.Notifications[0].Message)

	alice.decode(http.MethodPost, "/notifications/"+notes.Notifications[0].ID+"/read", nil, http.StatusNoContent, nil)
	var updated map[string]int64
	alice.decode(http.MethodPost, "/notifications/read-all", nil, http.StatusOK, &updated)
	assert.Equal(t, int64(2), updated["updated"])

	status, _ = bob.do(http.MethodDelete, "/groups/"+g.ID, nil)
	assert.Equal(t, http.StatusForbidden, status)
	bob.decode(http.MethodDelete, "/groups/"+g.ID+"/members/bob", nil, http.StatusNoContent, nil)
	alice.decode(http.MethodDelete, "/groups/"+g.ID, nil, http.StatusNoContent, nil)
	status, _ = alice.do(http.MethodGet, "/groups/"+g.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestJoinRequestEndpoints(t *testing.T) {
	ts := setupTestServer(t)
	alice := as(t, ts, "alice")
	bob := as(t, ts, "bob")

	var g models.HabitGroup
	alice.decode(http.MethodPost, "/groups", service.NewGroup{Name: "Quiet", Category: "mental_health", IsPrivate: true}, http.StatusCreated, &g)

	status, _ := bob.do(http.MethodPost, "/groups/"+g.ID+"/join", nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = bob.do(http.MethodGet, "/groups/"+g.ID+"/posts", nil)
	assert.Equal(t, http.StatusForbidden, status)

	var req models.JoinRequest
	bob.decode(http.MethodPost, "/groups/"+g.ID+"/requests", nil, http.StatusCreated, &req)

	status, _ = bob.do(http.MethodGet, "/groups/"+g.ID+"/requests", nil)
	assert.Equal(t, http.StatusForbidden, status)
	var pending []models.JoinRequest
	alice.decode(http.MethodGet, "/groups/"+g.ID+"/requests", nil, http.StatusOK, &pending)
	require.Len(t, pending, 1)

	var accepted models.JoinRequest
	alice.decode(http.MethodPost, "/requests/"+req.ID+"/accept", nil, http.StatusOK, &accepted)
	assert.Equal(t, models.JoinRequestAccepted, accepted.Status)

	status, _ = alice.do(http.MethodPost, "/requests/"+req.ID+"/decline", nil)
	assert.Equal(t, http.StatusConflict, status)
	status, _ = alice.do(http.MethodPost, "/requests/"+req.ID+"/maybe", nil)
	assert.Equal(t, http.StatusNotFound, status)

	bob.decode(http.MethodGet, "/groups/"+g.ID+"/posts", nil, http.StatusOK, nil)
}

func TestMessagingEndpoints(t *testing.T) {
	ts := setupTestServer(t)
	alice := as(t, ts, "alice")
	bob := as(t, ts, "bob")
	eve := as(t, ts, "eve")
	bob.decode(http.MethodGet, "/me", nil, http.StatusOK, nil)
	eve.decode(http.MethodGet, "/me", nil, http.StatusOK, nil)

	var m models.ChatMessage
	alice.decode(http.MethodPost, "/messages", messageRequest{RecipientID: "bob", Text: "Great run!"}, http.StatusCreated, &m)

	var convs []models.Conversation
	bob.decode(http.MethodGet, "/conversations", nil, http.StatusOK, &convs)
	require.Len(t, convs, 1)
	assert.Equal(t, m.ConversationID, convs[0].ID)

	var conv models.Conversation
	bob.decode(http.MethodGet, "/conversations/"+m.ConversationID, nil, http.StatusOK, &conv)
	require.Len(t, conv.Messages, 1)

	status, _ := eve.do(http.MethodGet, "/conversations/"+m.ConversationID, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = alice.do(http.MethodPost, "/messages", messageRequest{RecipientID: "alice", Text: "hi"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCategoriesEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	c := as(t, ts, "alice")
	c.lang = "id"

	var cats []categoryView
	c.decode(http.MethodGet, "/categories", nil, http.StatusOK, &cats)
	require.Len(t, cats, 7)
	assert.Equal(t, categoryView{ID: "learning", Emoji: "📚", Name: "Belajar & Pengembangan Diri"}, cats[0])
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperrors.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("group x: %w", apperrors.ErrForbidden), http.StatusForbidden},
		{apperrors.Invalid("bad"), http.StatusBadRequest},
		{apperrors.ErrEmptyText, http.StatusBadRequest},
		{interaction.ErrUnknownKind, http.StatusBadRequest},
		{interaction.ErrEmptyComment, http.StatusBadRequest},
		{apperrors.ErrConflict, http.StatusConflict},
		{apperrors.ErrGroupFull, http.StatusConflict},
		{apperrors.ErrUnauthenticated, http.StatusUnauthorized},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), tt.err.Error())
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), fmt.Errorf("pq: password authentication failed"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", errorOf(t, rec.Body.Bytes()))
}

func TestBearerToken(t *testing.T) {
	tok, ok := bearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", tok)

	tok, ok = bearerToken("bearer xyz")
	assert.True(t, ok)
	assert.Equal(t, "xyz", tok)

	_, ok = bearerToken("Basic dXNlcg==")
	assert.False(t, ok)
	_, ok = bearerToken("Bearer ")
	assert.False(t, ok)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "huddle.db"))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { store.Close() })
	srv := New(service.New(store), Options{TokenSecret: testSecret, AccessLog: io.Discard})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		res, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		res.Body.Close()
		return res.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
