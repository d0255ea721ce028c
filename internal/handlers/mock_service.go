package handlers

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"authentication_api/internal/models"
	"authentication_api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ---- Service Mocks ----

type mockDirectory struct {
	createResp models.User
	createErr  error
	updateErr  error
	deleteErr  error
	getResp    models.User
	getErr     error
	listResp   []models.User
	listErr    error

	lastCreate   models.User
	lastPassword string
	lastUpdateID int64
	lastPatch    models.UserPatch
	lastDeleteID int64
	lastGetID    int64
}

func (m *mockDirectory) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	return nil, nil
}
func (m *mockDirectory) CreateUser(ctx context.Context, u models.User, password string) (models.User, error) {
	m.lastCreate, m.lastPassword = u, password
	return m.createResp, m.createErr
}
func (m *mockDirectory) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) error {
	m.lastUpdateID, m.lastPatch = id, patch
	return m.updateErr
}
func (m *mockDirectory) DeleteUser(ctx context.Context, id int64) error {
	m.lastDeleteID = id
	return m.deleteErr
}
func (m *mockDirectory) GetUser(ctx context.Context, id int64) (models.User, error) {
	m.lastGetID = id
	return m.getResp, m.getErr
}
func (m *mockDirectory) ListUsers(ctx context.Context) ([]models.User, error) {
	return m.listResp, m.listErr
}

type mockAuth struct {
	session  *service.Session
	signErr  error
	parseID  int64
	parseErr error

	lastUsername   string
	lastPassword   string
	lastParseToken string
}

func (m *mockAuth) SignIn(ctx context.Context, username, password string) (*service.Session, error) {
	m.lastUsername, m.lastPassword = username, password
	return m.session, m.signErr
}
func (m *mockAuth) ParseToken(token string) (*service.Claims, error) {
	m.lastParseToken = token
	if m.parseErr != nil {
		return nil, m.parseErr
	}
	return &service.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: strconv.FormatInt(m.parseID, 10)}}, nil
}

type mockAuditLog struct {
	mu      sync.Mutex
	batches [][]models.AuditEvent // returned in order; the last one repeats
	err     error
	calls   int
	filters []service.AuditFilter
}

func (m *mockAuditLog) ListEvents(ctx context.Context, f service.AuditFilter) ([]models.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, f)
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.batches) == 0 {
		return nil, nil
	}
	i := m.calls - 1
	if i >= len(m.batches) {
		i = len(m.batches) - 1
	}
	return m.batches[i], nil
}

func (m *mockAuditLog) lastFilter() service.AuditFilter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filters[len(m.filters)-1]
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
