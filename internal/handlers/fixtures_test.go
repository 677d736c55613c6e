package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/videohub/backend/internal/auth"
	"github.com/videohub/backend/internal/cache"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/repositories"
	"github.com/videohub/backend/internal/videos"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]models.User)}
}

func (m *memoryUsers) Create(_ context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (m *memoryUsers) FindByID(_ context.Context, id string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (m *memoryUsers) FirstAdmin(_ context.Context) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var first *models.User
	for _, user := range m.users {
		if user.Role != models.RoleAdmin {
			continue
		}
		if first == nil || user.CreatedAt.Before(first.CreatedAt) {
			u := user
			first = &u
		}
	}
	if first == nil {
		return models.User{}, repositories.ErrNotFound
	}
	return *first, nil
}

type memoryVideos struct {
	mu     sync.Mutex
	videos map[string]models.Video
}

func newMemoryVideos() *memoryVideos {
	return &memoryVideos{videos: make(map[string]models.Video)}
}

func (m *memoryVideos) ListVisible(_ context.Context, now time.Time) ([]models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []models.Video
	for _, v := range m.videos {
		if v.IsActive && (v.ExpiryDate == nil || v.ExpiryDate.After(now)) {
			list = append(list, v)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (m *memoryVideos) FindByID(_ context.Context, id string) (models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return v, nil
}

func (m *memoryVideos) Create(_ context.Context, video models.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videos[video.ID] = video
	return nil
}

func (m *memoryVideos) Update(_ context.Context, id string, patch models.VideoPatch, updatedAt time.Time) (models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	if patch.Title != nil {
		v.Title = *patch.Title
	}
	if patch.Description != nil {
		v.Description = *patch.Description
	}
	if patch.URL != nil {
		v.URL = *patch.URL
	}
	if patch.Thumbnail != nil {
		v.Thumbnail = *patch.Thumbnail
	}
	if patch.Duration != nil {
		v.Duration = *patch.Duration
	}
	if patch.ExpiryDate != nil {
		v.ExpiryDate = patch.ExpiryDate
	}
	if patch.IsActive != nil {
		v.IsActive = *patch.IsActive
	}
	v.UpdatedAt = updatedAt
	m.videos[id] = v
	return v, nil
}

func (m *memoryVideos) Deactivate(ctx context.Context, id string, updatedAt time.Time) (models.Video, error) {
	inactive := false
	return m.Update(ctx, id, models.VideoPatch{IsActive: &inactive}, updatedAt)
}

func (m *memoryVideos) RecordView(_ context.Context, view models.VideoView) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[view.VideoID]
	if !ok {
		return repositories.ErrNotFound
	}
	v.ViewsCount++
	m.videos[view.VideoID] = v
	return nil
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubThumbnails struct {
	saved map[string][]byte
	err   error
}

func (s *stubThumbnails) SaveThumbnail(_ context.Context, videoID, filename string, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if s.saved == nil {
		s.saved = make(map[string][]byte)
	}
	s.saved[videoID] = data
	return "https://cdn.example.com/thumbnails/" + videoID + "/" + filename, nil
}

type denyAfter struct {
	mu    sync.Mutex
	limit int
	seen  map[string]int
}

func (d *denyAfter) Allow(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen == nil {
		d.seen = make(map[string]int)
	}
	d.seen[key]++
	return d.seen[key] <= d.limit
}

type testServer struct {
	handler http.Handler
	users   *memoryUsers
	videos  *memoryVideos
	mr      *miniredis.Miniredis
}

func newTestServer(t *testing.T, configure func(*Dependencies)) testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cacheClient := cache.New(rdb)

	users := newMemoryUsers()
	store := newMemoryVideos()

	tokens, err := auth.NewTokenIssuer("handler-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("token issuer: %v", err)
	}
	service := auth.NewService(users, tokens, auth.NewSessionStore(cacheClient, time.Hour), auth.Options{BcryptCost: bcrypt.MinCost})
	catalog := videos.NewCatalog(store, users, cacheClient, videos.Options{})

	deps := Dependencies{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Auth:        service,
		Videos:      catalog,
		Database:    stubPinger{},
		Cache:       cacheClient,
		Environment: "test",
		StaticDir:   t.TempDir(),
		CORSOrigins: []string{"*"},
		StartedAt:   time.Now(),
	}
	if configure != nil {
		configure(&deps)
	}

	return testServer{handler: NewRouter(deps), users: users, videos: store, mr: mr}
}

func (s testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// addUser stores an account directly, bypassing registration.
func (s testServer) addUser(t *testing.T, email, password, role string, createdAt time.Time) models.User {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	if err := s.users.Create(context.Background(), user); err != nil {
		t.Fatalf("add user: %v", err)
	}
	return user
}

func (s testServer) login(t *testing.T, email, password string) loginResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/login", "", credentialsRequest{Email: email, Password: password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	return decodeBody[loginResponse](t, rec)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[errorResponse](t, rec).Error
}

var errBoom = errors.New("boom")
