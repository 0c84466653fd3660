package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vishwajithmr/agenx-backend-sub000/internal/db"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/router"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/services"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/utils"
)

type testAPI struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.ReplaceAll(t.Name(), "/", "_")
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	log := zerolog.Nop()
	tokens := services.NewTokenService("test-secret", time.Hour)
	scorer := services.NewScoringService(conn, log)
	votes := services.NewVoteService(conn, scorer)

	// Each test gets its own cache: row ids restart at 1 in every in-memory
	// database, so a shared cache would serve one test's payloads to another.
	cache, err := utils.NewCache(64)
	require.NoError(t, err)

	engine := gin.New()
	router.RegisterRoutes(engine, router.Deps{
		DB:       conn,
		Tokens:   tokens,
		Votes:    votes,
		Comments: services.NewCommentService(conn, votes),
		Notify:   services.NewNotificationService(conn, log),
		Cache:    cache,
		Log:      log,
	})

	return &testAPI{t: t, engine: engine}
}

func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (a *testAPI) register(name string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": name,
		"email":    name + "@example.com",
		"password": "password123",
	})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(a.t, rec)["token"].(string)
}

func (a *testAPI) createAgent(token string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/agents", token, gin.H{
		"name":        "code helper",
		"description": "writes and reviews code for you",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	agent := decode(a.t, rec)["agent"].(map[string]interface{})
	return agent["aid"].(string)
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)

	token := api.register("alice")

	// Duplicate email conflicts.
	rec := api.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	envelope := decode(t, rec)["error"].(map[string]interface{})
	assert.Equal(t, "conflict", envelope["code"])

	// Wrong password.
	rec = api.do(http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode(t, rec)["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])

	// Unauthenticated and garbage tokens are both 401.
	rec = api.do(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = api.do(http.MethodGet, "/api/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDiscussionAndVoteFlow(t *testing.T) {
	api := newTestAPI(t)

	alice := api.register("alice")
	bob := api.register("bob")
	aid := api.createAgent(alice)

	rec := api.do(http.MethodPost, "/api/agents/"+aid+"/discussions", alice, gin.H{
		"title":   "getting started",
		"content": "how do I configure this agent?",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	discussion := decode(t, rec)["discussion"].(map[string]interface{})
	did := discussion["did"].(string)
	assert.EqualValues(t, 0, discussion["score"])

	// Writes need auth.
	rec = api.do(http.MethodPost, "/api/discussions/"+did+"/vote", "", gin.H{"value": 1})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/api/discussions/"+did+"/vote", bob, gin.H{"value": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	vote := decode(t, rec)
	assert.EqualValues(t, 1, vote["score"])
	assert.EqualValues(t, 1, vote["user_vote"])

	rec = api.do(http.MethodPost, "/api/discussions/"+did+"/vote", bob, gin.H{"value": 2})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Comment, then fetch the tree anonymously.
	rec = api.do(http.MethodPost, "/api/discussions/"+did+"/comments", bob, gin.H{
		"content": "try the defaults first",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	comment := decode(t, rec)["comment"].(map[string]interface{})
	cid := comment["cid"].(string)

	rec = api.do(http.MethodPost, "/api/discussions/"+did+"/comments", alice, gin.H{
		"content":    "thanks, that worked",
		"parent_cid": cid,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/discussions/"+did+"/comments/tree", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tree := decode(t, rec)["comments"].([]interface{})
	require.Len(t, tree, 1)
	root := tree[0].(map[string]interface{})
	replies := root["replies"].([]interface{})
	require.Len(t, replies, 1)
	// The discussion author is flagged as OP on their reply.
	assert.Equal(t, true, replies[0].(map[string]interface{})["is_op"])

	// The author's own live vote survives into the update response.
	rec = api.do(http.MethodPost, "/api/discussions/"+did+"/vote", alice, gin.H{"value": -1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPut, "/api/discussions/"+did, alice, gin.H{
		"title":   "getting started, revised",
		"content": "how do I configure this agent properly?",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode(t, rec)["discussion"].(map[string]interface{})
	assert.EqualValues(t, -1, updated["user_vote"])
	assert.EqualValues(t, 0, updated["score"])

	// Only the author can edit, and only the author can delete.
	rec = api.do(http.MethodPut, "/api/discussions/"+did, bob, gin.H{
		"title":   "hijacked title",
		"content": "hijacked content here",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodDelete, "/api/discussions/"+did, alice, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodGet, "/api/discussions/"+did, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReviewFlow(t *testing.T) {
	api := newTestAPI(t)

	alice := api.register("alice")
	bob := api.register("bob")
	aid := api.createAgent(alice)

	rec := api.do(http.MethodPost, "/api/agents/"+aid+"/reviews", bob, gin.H{
		"rating":  5,
		"content": "excellent agent, saved me hours",
		"images":  []string{"https://example.com/shot.png"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	review := decode(t, rec)["review"].(map[string]interface{})
	reviewID := fmt.Sprintf("%.0f", review["id"].(float64))

	// One review per user per agent.
	rec = api.do(http.MethodPost, "/api/agents/"+aid+"/reviews", bob, gin.H{
		"rating":  1,
		"content": "changed my mind completely",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, "/api/reviews/"+reviewID+"/vote", alice, gin.H{"value": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	vote := decode(t, rec)
	assert.EqualValues(t, 1, vote["upvotes"])

	rec = api.do(http.MethodPost, "/api/reviews/"+reviewID+"/replies", alice, gin.H{
		"content": "glad it helped you",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/agents/"+aid+"/reviews", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode(t, rec)
	reviews := listed["reviews"].([]interface{})
	require.Len(t, reviews, 1)
	first := reviews[0].(map[string]interface{})
	assert.Len(t, first["images"].([]interface{}), 1)
	assert.Len(t, first["replies"].([]interface{}), 1)

	rec = api.do(http.MethodGet, "/api/agents/"+aid+"/reviews/summary", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode(t, rec)["summary"].(map[string]interface{})
	assert.EqualValues(t, 1, summary["total_reviews"])
	assert.EqualValues(t, 5, summary["average_rating"])
	assert.Equal(t, "excellent", summary["credibility_badge"])

	// The author's own standing vote comes back on an update response.
	rec = api.do(http.MethodPost, "/api/reviews/"+reviewID+"/vote", bob, gin.H{"value": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPut, "/api/reviews/"+reviewID, bob, gin.H{
		"rating":  4,
		"content": "still excellent after a month of use",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	edited := decode(t, rec)["review"].(map[string]interface{})
	assert.EqualValues(t, 1, edited["user_vote"])
	assert.EqualValues(t, 2, edited["upvotes"])

	// Bob notified nobody, Bob got a reply notification.
	rec = api.do(http.MethodGet, "/api/notifications", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	// The reply notification is written asynchronously.
	deadline := time.Now().Add(2 * time.Second)
	for {
		rec = api.do(http.MethodGet, "/api/notifications", bob, nil)
		notifications := decode(t, rec)["notifications"].([]interface{})
		if len(notifications) == 1 || time.Now().After(deadline) {
			require.Len(t, notifications, 1)
			n := notifications[0].(map[string]interface{})
			assert.Equal(t, "review_reply", n["type"])
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Deleting the review sweeps replies and votes with it.
	rec = api.do(http.MethodDelete, "/api/reviews/"+reviewID, bob, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodGet, "/api/agents/"+aid+"/reviews/summary", "", nil)
	summary = decode(t, rec)["summary"].(map[string]interface{})
	assert.EqualValues(t, 0, summary["total_reviews"])
}
