package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mvaleed/conduit/internal/auth"
	"github.com/mvaleed/conduit/internal/config"
	"github.com/mvaleed/conduit/internal/domain"
	"github.com/mvaleed/conduit/internal/event"
	"github.com/mvaleed/conduit/internal/logging"
	"github.com/mvaleed/conduit/internal/service"
	"github.com/mvaleed/conduit/internal/storage"
	"github.com/mvaleed/conduit/internal/storage/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWith(t, logging.Discard(), nil)
}

// newTestServerWith lets wrap replace repositories before the services are built.
func newTestServerWith(t *testing.T, logger *logrus.Logger, wrap func(*storage.Repositories)) *Server {
	t.Helper()

	store := memory.New()
	repos := store.Repositories()
	if wrap != nil {
		wrap(repos)
	}
	publisher := event.NewNoopPublisher()

	cascade := service.NewArticleCascade(store, repos.Articles, repos.Comments)
	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		SecretKey: "test-secret",
		TokenTTL:  time.Hour,
		Issuer:    "conduit-test",
	})

	return NewServer(
		&config.Config{CORSAllowedOrigins: []string{"*"}},
		service.NewUserService(repos.Users, auth.NewHasher(bcrypt.MinCost), publisher, logger),
		service.NewProfileService(repos.Profiles, publisher, logger),
		service.NewArticleService(repos.Articles, repos.Profiles, repos.Tags, cascade, publisher, logger),
		service.NewCommentService(repos.Comments, repos.Profiles, publisher, logger),
		jwtManager,
		logger,
	)
}

func do(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func register(t *testing.T, s *Server, username string) string {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/users", "", map[string]any{
		"user": map[string]string{
			"email":    username + "@conduit.io",
			"password": "password123",
			"username": username,
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[userEnvelope](t, rec).User.Token
}

func createArticle(t *testing.T, s *Server, token, title string, tags ...string) articleResponse {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/articles", token, map[string]any{
		"article": map[string]any{
			"title":       title,
			"description": "about " + title,
			"body":        "body",
			"tagList":     tags,
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[articleEnvelope](t, rec).Article
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := register(t, s, "jake")
	assert.NotEmpty(t, token)

	rec := do(t, s, http.MethodPost, "/api/users/login", "", map[string]any{
		"user": map[string]string{"email": "jake@conduit.io", "password": "password123"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jake", decode[userEnvelope](t, rec).User.Username)

	rec = do(t, s, http.MethodGet, "/api/user", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jake@conduit.io", decode[userEnvelope](t, rec).User.Email)

	rec = do(t, s, http.MethodPut, "/api/user", token, map[string]any{
		"user": map[string]string{"bio": "I like to skateboard"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "I like to skateboard", decode[userEnvelope](t, rec).User.Bio)

	rec = do(t, s, http.MethodPut, "/api/user", token, map[string]any{"user": map[string]string{}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "NOTHING_TO_UPDATE", decode[errorResponse](t, rec).Code)
}

func TestAuthenticationFailures(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "jake")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"missing token", http.MethodGet, "/api/user", "", nil, http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/user", "garbage", nil, http.StatusUnauthorized},
		{"bad token on public route", http.MethodGet, "/api/tags", "garbage", nil, http.StatusUnauthorized},
		{"wrong password", http.MethodPost, "/api/users/login", "", map[string]any{
			"user": map[string]string{"email": "jake@conduit.io", "password": "wrongpass"},
		}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestValidationErrorsAreRendered(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/users", "", map[string]any{
		"user": map[string]string{"email": "nope", "password": "short"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	resp := decode[errorResponse](t, rec)
	assert.Equal(t, "INVALID_INPUT", resp.Code)
	assert.Equal(t, []fieldError{
		{Key: "email", Message: "has an invalid format"},
		{Key: "password", Message: "must be at least 8 characters"},
		{Key: "username", Message: "is required"},
	}, resp.Errors)

	rec = do(t, s, http.MethodPost, "/api/users", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestArticleEndpoints(t *testing.T) {
	s := newTestServer(t)
	jake := register(t, s, "jake")
	jane := register(t, s, "jane")

	article := createArticle(t, s, jake, "Dragons", "dragons")
	createArticle(t, s, jane, "Wyverns", "dragons")

	rec := do(t, s, http.MethodGet, "/api/articles?tag=dragons&author=jake", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[articlesEnvelope](t, rec)
	require.Len(t, list.Articles, 1)
	assert.Equal(t, article.Slug, list.Articles[0].Slug)
	assert.Equal(t, 1, list.ArticlesCount)

	rec = do(t, s, http.MethodGet, "/api/articles?offset=3", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	over := decode[errorResponse](t, rec)
	require.NotNil(t, over.Count)
	assert.Equal(t, 2, *over.Count)

	rec = do(t, s, http.MethodGet, "/api/articles?limit=abc&offset=xyz", "", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Len(t, decode[errorResponse](t, rec).Errors, 2)

	rec = do(t, s, http.MethodPost, "/api/articles/"+article.Slug+"/favorite", jane, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[articleEnvelope](t, rec).Article.Favorited)

	rec = do(t, s, http.MethodGet, "/api/articles/"+article.Slug, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	shown := decode[articleEnvelope](t, rec).Article
	assert.False(t, shown.Favorited)
	assert.Equal(t, 1, shown.FavoritesCount)

	rec = do(t, s, http.MethodPut, "/api/articles/"+article.Slug, jane, map[string]any{
		"article": map[string]string{"title": "Mine now"},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/articles/"+article.Slug, jake, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/articles/"+article.Slug, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/tags", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"dragons"}, decode[tagsEnvelope](t, rec).Tags)
}

func TestFeedAndProfiles(t *testing.T) {
	s := newTestServer(t)
	jake := register(t, s, "jake")
	jane := register(t, s, "jane")
	createArticle(t, s, jane, "Wyverns")

	rec := do(t, s, http.MethodPost, "/api/profiles/jane/follow", jake, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[profileEnvelope](t, rec).Profile.Following)

	rec = do(t, s, http.MethodGet, "/api/profiles/jane", jake, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[profileEnvelope](t, rec).Profile.Following)

	rec = do(t, s, http.MethodGet, "/api/articles/feed", jake, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	feed := decode[articlesEnvelope](t, rec)
	require.Len(t, feed.Articles, 1)
	assert.Equal(t, "jane", feed.Articles[0].Author.Username)

	rec = do(t, s, http.MethodGet, "/api/articles/feed", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/profiles/jane/follow", jake, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[profileEnvelope](t, rec).Profile.Following)

	rec = do(t, s, http.MethodGet, "/api/profiles/nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCommentEndpoints(t *testing.T) {
	s := newTestServer(t)
	jake := register(t, s, "jake")
	jane := register(t, s, "jane")
	article := createArticle(t, s, jake, "Dragons")
	path := "/api/articles/" + article.Slug + "/comments"

	rec := do(t, s, http.MethodPost, path, jane, map[string]any{"comment": map[string]string{"body": "first"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	comment := decode[commentEnvelope](t, rec).Comment
	assert.Equal(t, "jane", comment.Author.Username)

	rec = do(t, s, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[commentsEnvelope](t, rec).Comments, 1)

	rec = do(t, s, http.MethodDelete, path+"/abc", jane, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s, http.MethodDelete, path+"/1", jake, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, s, http.MethodDelete, path+"/1", jane, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[commentsEnvelope](t, rec).Comments)
}

type brokenTags struct{}

func (brokenTags) List(context.Context) ([]domain.Tag, error) {
	return nil, errors.New("connection reset")
}

func TestUnexpectedFailureIsLoggedOnce(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := newTestServerWith(t, logger, func(r *storage.Repositories) { r.Tags = brokenTags{} })

	rec := do(t, s, http.MethodGet, "/api/tags", "", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")

	var failures []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			failures = append(failures, e)
		}
	}
	require.Len(t, failures, 1)
	assert.Equal(t, service.OpListTags, failures[0].Data["op"])
	assert.EqualError(t, failures[0].Data[logrus.ErrorKey].(error), "connection reset")
}
