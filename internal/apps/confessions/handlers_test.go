package confessions

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nyaynow/confessions-backend/internal/config"
	"github.com/nyaynow/confessions-backend/internal/middleware"
	"github.com/nyaynow/confessions-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type harness struct {
	app      *fiber.App
	store    *Store
	analyzer *Analyzer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s := newTestStore(t)
	a := newAnalyzer(s, genFunc(func(context.Context, string) (string, error) {
		return "Legal posture: favourable.", nil
	}))
	cfg := &config.Config{JWTSecret: testSecret, AdminToken: "admin-token"}

	p := New(s, a, services.NewModerationService(nil))
	app := fiber.New()
	api := app.Group("/api")
	p.RegisterRoutes(api, middleware.JWTProtected(cfg))
	p.RegisterAdminRoutes(api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(cfg)))

	return &harness{app: app, store: s, analyzer: a}
}

func token(t *testing.T, sub uuid.UUID, claims jwt.MapClaims) string {
	t.Helper()
	all := jwt.MapClaims{"sub": sub.String(), "exp": time.Now().Add(time.Hour).Unix()}
	for k, v := range claims {
		all[k] = v
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, all).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func (h *harness) do(t *testing.T, method, path, tok string, body interface{}, headers ...string) (int, map[string]interface{}, string) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out, string(raw)
}

func TestHandlers_CreateThenRead(t *testing.T) {
	h := newHarness(t)
	author := uuid.New()
	tok := token(t, author, nil)

	status, out, _ := h.do(t, "POST", "/api/confessions", tok, map[string]interface{}{
		"title":    "Landlord won't return deposit",
		"body":     "Three months and no refund.",
		"category": "Tenant",
		"tags":     []string{"deposit"},
	})
	require.Equal(t, http.StatusCreated, status)
	id, _ := out["id"].(string)
	require.NotEmpty(t, id)
	assert.NotEmpty(t, out["message"])

	h.analyzer.Wait()

	status, out, raw := h.do(t, "GET", "/api/confessions/"+id, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, raw, author.String())
	assert.Equal(t, "Legal posture: favourable.", out["aiAnalysis"])
	replies, _ := out["replies"].([]interface{})
	require.Len(t, replies, 1)
	first, _ := replies[0].(map[string]interface{})
	assert.Equal(t, "ai", first["responderRole"])
	assert.Equal(t, "NyayNow AI", first["responderName"])

	status, out, raw = h.do(t, "GET", "/api/confessions?category=Tenant&sort=top", "", nil)
	require.Equal(t, http.StatusOK, status)
	list, _ := out["confessions"].([]interface{})
	assert.Len(t, list, 1)
	assert.NotContains(t, raw, author.String())
}

func TestHandlers_CreateRequiresAuth(t *testing.T) {
	h := newHarness(t)

	status, out, _ := h.do(t, "POST", "/api/confessions", "", map[string]string{"title": "t", "body": "b"})

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.NotEmpty(t, out["error"])
}

func TestHandlers_CreateValidationAndFilter(t *testing.T) {
	h := newHarness(t)
	tok := token(t, uuid.New(), nil)

	status, out, _ := h.do(t, "POST", "/api/confessions", tok, map[string]string{"title": "", "body": "b"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, out["error"], "title")

	status, out, _ = h.do(t, "POST", "/api/confessions", tok, map[string]string{"title": "help", "body": "call me on 98765 43210"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, out["error"], "Contact information")

	status, _, _ = h.do(t, "POST", "/api/confessions", tok, map[string]string{"title": "help", "body": "b", "category": "Space"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHandlers_ReplyUpvoteHelpfulResolve(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	author := uuid.New()
	c := mustCreate(t, h.store, author, "deposit")
	base := "/api/confessions/" + c.ID.String()

	lawyerTok := token(t, uuid.New(), jwt.MapClaims{"role": "lawyer", "specialization": []string{"Property", "Tenant"}})
	status, out, _ := h.do(t, "POST", base+"/reply", lawyerTok, map[string]string{"text": "Send a legal notice."})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Reply added", out["message"])

	got, err := h.store.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Replies, 1)
	replyID := got.Replies[0].ID.String()

	voterTok := token(t, uuid.New(), nil)
	status, out, _ = h.do(t, "POST", base+"/upvote", voterTok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, out["upvotes"])
	assert.Equal(t, true, out["upvoted"])

	status, out, _ = h.do(t, "POST", base+"/upvote", voterTok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, out["upvotes"])
	assert.Equal(t, false, out["upvoted"])

	status, out, _ = h.do(t, "POST", base+"/reply/"+replyID+"/helpful", voterTok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, out["helpful"])
	assert.Equal(t, true, out["marked"])

	status, out, _ = h.do(t, "GET", base, "", nil)
	require.Equal(t, http.StatusOK, status)
	replies, _ := out["replies"].([]interface{})
	require.Len(t, replies, 1)
	assert.Equal(t, "Adv. Property, Tenant", replies[0].(map[string]interface{})["responderName"])

	status, _, _ = h.do(t, "PATCH", base+"/resolve", voterTok, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, out, _ = h.do(t, "PATCH", base+"/resolve", token(t, author, nil), nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, out["message"])
}

func TestHandlers_NotFoundAndBadID(t *testing.T) {
	h := newHarness(t)
	tok := token(t, uuid.New(), nil)

	status, out, _ := h.do(t, "GET", "/api/confessions/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Confession not found", out["error"])

	status, _, _ = h.do(t, "GET", "/api/confessions/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _, _ = h.do(t, "POST", "/api/confessions/"+uuid.NewString()+"/upvote", tok, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _, _ = h.do(t, "POST", "/api/confessions/"+uuid.NewString()+"/reply/bad/helpful", tok, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	c := mustCreate(t, h.store, uuid.New(), "deposit")
	status, out, _ = h.do(t, "POST", "/api/confessions/"+c.ID.String()+"/reply/"+uuid.NewString()+"/helpful", tok, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Reply not found", out["error"])

	status, out, _ = h.do(t, "POST", "/api/confessions/"+uuid.NewString()+"/reply/"+uuid.NewString()+"/helpful", tok, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Confession not found", out["error"])
}

func TestHandlers_AdminAccessor(t *testing.T) {
	h := newHarness(t)
	author := uuid.New()
	c := mustCreate(t, h.store, author, "deposit")
	tok := token(t, uuid.New(), nil)
	path := "/api/admin/confessions/" + c.ID.String()

	status, _, _ := h.do(t, "GET", path, tok, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, out, _ := h.do(t, "GET", path, tok, nil, "X-Admin-Token", "admin-token")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, author.String(), out["author_id"])

	status, _, _ = h.do(t, "PATCH", path+"/status", tok, map[string]string{"status": "closed"}, "X-Admin-Token", "admin-token")
	require.Equal(t, http.StatusOK, status)

	got, err := h.store.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, got.Status)
}
