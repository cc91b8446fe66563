// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/posmap/internal/auth"
	"github.com/tomtom215/posmap/internal/config"
	"github.com/tomtom215/posmap/internal/database"
	"github.com/tomtom215/posmap/internal/models"
	ws "github.com/tomtom215/posmap/internal/websocket"
)

const testPassword = "correct-horse"

// fakeStore implements PointStore and auth.UserStore in memory.
type fakeStore struct {
	mu       sync.Mutex
	points   map[int64]models.PointOfSale
	users    map[string]models.AppUser
	nextID   int64
	now      time.Time
	failAll  bool
	allCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		points: make(map[int64]models.PointOfSale),
		users:  make(map[string]models.AppUser),
		now:    time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC),
	}
}

var errStoreDown = errors.New("store unavailable")

func (s *fakeStore) Ping(context.Context) error {
	if s.failAll {
		return errStoreDown
	}
	return nil
}

func (s *fakeStore) sorted() []models.PointOfSale {
	out := make([]models.PointOfSale, 0, len(s.points))
	for _, p := range s.points {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *fakeStore) ListPoints(_ context.Context, offset, limit int) ([]models.PointOfSale, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return nil, 0, errStoreDown
	}
	all := s.sorted()
	total := int64(len(all))
	if offset >= len(all) {
		return []models.PointOfSale{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (s *fakeStore) AllPoints(context.Context) ([]models.PointOfSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allCalls++
	if s.failAll {
		return nil, errStoreDown
	}
	return s.sorted(), nil
}

func (s *fakeStore) GetPoint(_ context.Context, id int64) (*models.PointOfSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.points[id]
	if !ok {
		return nil, database.ErrPointNotFound
	}
	return &p, nil
}

func (s *fakeStore) CreatePoint(_ context.Context, in models.PointInput) (*models.PointOfSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p := models.PointOfSale{
		ID:          s.nextID,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Description: in.Description,
		Sale:        in.Sale,
		Zone:        in.Zone,
		CreatedAt:   s.now,
	}
	s.points[p.ID] = p
	return &p, nil
}

func (s *fakeStore) UpdatePoint(_ context.Context, id int64, in models.PointInput) (*models.PointOfSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.points[id]
	if !ok {
		return nil, database.ErrPointNotFound
	}
	updated := s.now
	p.Latitude, p.Longitude = in.Latitude, in.Longitude
	p.Description, p.Sale, p.Zone = in.Description, in.Sale, in.Zone
	p.UpdatedAt = &updated
	s.points[id] = p
	return &p, nil
}

func (s *fakeStore) DeletePoint(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.points[id]; !ok {
		return database.ErrPointNotFound
	}
	delete(s.points, id)
	return nil
}

func (s *fakeStore) SalesByZone(context.Context) ([]models.ZoneSales, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	totals := map[string]*models.ZoneSales{}
	for _, p := range s.points {
		zone := strings.TrimSpace(p.Zone)
		if zone == "" {
			zone = models.UnassignedZone
		}
		z, ok := totals[zone]
		if !ok {
			z = &models.ZoneSales{Zone: zone}
			totals[zone] = z
		}
		z.TotalSale += p.Sale
		z.Count++
	}
	out := make([]models.ZoneSales, 0, len(totals))
	for _, z := range totals {
		out = append(out, *z)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalSale > out[j].TotalSale })
	return out, nil
}

func (s *fakeStore) GetUserByUsername(_ context.Context, username string) (*models.AppUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	return &u, nil
}

func (s *fakeStore) CreateUser(_ context.Context, u models.AppUser) (*models.AppUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return nil, database.ErrUsernameTaken
	}
	u.ID = int64(len(s.users) + 1)
	u.CreatedAt = s.now
	s.users[u.Username] = u
	return &u, nil
}

func (s *fakeStore) SetPasswordHash(_ context.Context, username, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return database.ErrUserNotFound
	}
	u.PasswordHash = hash
	u.Active = true
	s.users[username] = u
	return nil
}

// addUser stores an active account with a cheap hash.
func (s *fakeStore) addUser(t *testing.T, username, zone string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if _, err := s.CreateUser(context.Background(), models.AppUser{
		Username:     username,
		PasswordHash: string(hash),
		Zone:         zone,
		Active:       true,
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}
}

func (s *fakeStore) seed(points ...models.PointOfSale) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		if p.ID > s.nextID {
			s.nextID = p.ID
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = s.now
		}
		s.points[p.ID] = p
	}
}

func testConfig(authMode string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Timezone: "America/Mexico_City"},
		API:    config.APIConfig{DefaultPageSize: 50, MaxPageSize: 500},
		Security: config.SecurityConfig{
			AuthMode:          authMode,
			JWTSecret:         strings.Repeat("k", 32),
			SessionTimeout:    time.Hour,
			RateLimitDisabled: true,
		},
		Cache: config.CacheConfig{TTL: time.Minute},
	}
}

type testServer struct {
	store   *fakeStore
	handler *Handler
	hub     *ws.Hub
	http    http.Handler
}

func newTestServer(t *testing.T, authMode string) *testServer {
	t.Helper()
	store := newFakeStore()
	cfg := testConfig(authMode)

	tokens, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	lockout := auth.NewLockoutManager(auth.NewMemoryLockoutStore(), auth.DefaultLockoutConfig())
	svc := auth.NewService(store, tokens, lockout)

	hub := ws.NewHub()
	h := NewHandler(store, svc, cfg, hub)
	h.now = func() time.Time { return store.now }
	t.Cleanup(h.Close)

	return &testServer{
		store:   store,
		handler: h,
		hub:     hub,
		http:    NewRouter(h).Setup(),
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.http.ServeHTTP(w, req)
	return w
}

// login returns a bearer token for a freshly added user.
func (ts *testServer) login(t *testing.T) string {
	t.Helper()
	ts.store.addUser(t, "ana", "Polanco")
	w := ts.do(t, http.MethodPost, "/api/v1/auth/login",
		models.LoginRequest{Username: "ana", Password: testPassword}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}
	var resp models.LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return resp.Token
}

// envelope decodes an APIResponse whose data is left raw.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, w.Body.String())
	}
	return env
}

func f64(v float64) *float64 { return &v }
