package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"payportal/internal/adapters/http/middleware"
	"payportal/internal/adapters/persistence/dbtest"
	"payportal/internal/adapters/persistence/models"
	"payportal/internal/adapters/swift"
	"payportal/internal/config"
	"payportal/internal/core/domain"
	"payportal/internal/core/services"
	"payportal/internal/pkg/fieldcrypt"
	"payportal/internal/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Errors  []struct {
		Field string `json:"field"`
	} `json:"errors"`
}

type testServer struct {
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := dbtest.Open(t)
	cfg := &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           "route-test-secret",
			RefreshSecret:    "route-test-refresh",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
		Cookie: config.CookieConfig{SameSite: "strict"},
	}

	key := bytes.Repeat([]byte{7}, fieldcrypt.KeySize)
	cipher, err := fieldcrypt.New(key)
	require.NoError(t, err)
	indexKey, err := fieldcrypt.DeriveIndexKey(key)
	require.NoError(t, err)
	indexer, err := fieldcrypt.NewIndexer(indexKey)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.CustomErrorHandler})
	Setup(app, cfg, services.NewServices(db, cfg, cipher, indexer, swift.NewLogPublisher()))
	return &testServer{app: app, db: db, cfg: cfg}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (int, *apiResponse, *http.Response) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out apiResponse
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, &out, resp
}

func registration(username, idNumber, account string) map[string]string {
	return map[string]string{
		"fullName":      "Jane Doe",
		"idNumber":      idNumber,
		"accountNumber": account,
		"username":      username,
		"password":      "Str0ng!Pass",
	}
}

func (s *testServer) registerAndLogin(t *testing.T, username, idNumber, account string) string {
	t.Helper()
	code, _, _ := s.do(t, http.MethodPost, "/api/v1/auth/register", registration(username, idNumber, account), "")
	require.Equal(t, http.StatusCreated, code)

	code, body, resp := s.do(t, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"username": username, "password": "Str0ng!Pass"}, "")
	require.Equal(t, http.StatusOK, code)

	var hasRefresh bool
	for _, c := range resp.Cookies() {
		if c.Name == "refresh_token" && c.Value != "" {
			hasRefresh = c.HttpOnly
		}
	}
	assert.True(t, hasRefresh, "refresh token travels as an http-only cookie")

	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	return data.AccessToken
}

func employeeToken(t *testing.T, s *testServer) string {
	t.Helper()
	emp := &models.User{
		Username: "aliceemp28", FullName: "Alice Employee", Password: "x",
		Role: domain.RoleEmployee, IDNumber: "e", AccountNumber: "e",
	}
	require.NoError(t, s.db.Create(emp).Error)
	token, err := jwt.GenerateAccessToken(emp.ID, emp.Username, string(emp.Role), s.cfg.JWT.Secret, s.cfg.JWT.AccessTTL())
	require.NoError(t, err)
	return token
}

func TestRegister_ValidationAndDuplicates(t *testing.T) {
	s := newTestServer(t)

	bad := registration("ab", "123", "1000000001")
	code, body, _ := s.do(t, http.MethodPost, "/api/v1/auth/register", bad, "")
	assert.Equal(t, http.StatusBadRequest, code)
	fields := map[string]bool{}
	for _, e := range body.Errors {
		fields[e.Field] = true
	}
	assert.True(t, fields["username"])
	assert.True(t, fields["idNumber"])

	long := registration("janedoe1", "8001015009087", "1000000001")
	long["password"] = "Aa1!" + strings.Repeat("a", 69)
	code, body, _ = s.do(t, http.MethodPost, "/api/v1/auth/register", long, "")
	assert.Equal(t, http.StatusBadRequest, code)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "password", body.Errors[0].Field)

	code, _, _ = s.do(t, http.MethodPost, "/api/v1/auth/register", registration("janedoe1", "8001015009087", "1000000001"), "")
	assert.Equal(t, http.StatusCreated, code)

	code, body, _ = s.do(t, http.MethodPost, "/api/v1/auth/register", registration("johndoe2", "8001015009087", "2000000001"), "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "ID number already in use", body.Error)
}

func TestLogin_BadCredentials(t *testing.T) {
	s := newTestServer(t)
	s.registerAndLogin(t, "janedoe1", "8001015009087", "1000000001")

	code, _, _ := s.do(t, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"username": "janedoe1", "password": "Wr0ng!Pass"}, "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuth_RequiredAndRoleChecked(t *testing.T) {
	s := newTestServer(t)

	code, _, _ := s.do(t, http.MethodGet, "/api/v1/payments", nil, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	forged, err := jwt.GenerateAccessToken(1, "mallory1", "superuser", s.cfg.JWT.Secret, s.cfg.JWT.AccessTTL())
	require.NoError(t, err)
	code, _, _ = s.do(t, http.MethodGet, "/api/v1/admin/payments", nil, forged)
	assert.Equal(t, http.StatusUnauthorized, code, "unknown roles are not honoured")

	customer := s.registerAndLogin(t, "janedoe1", "8001015009087", "1000000001")
	code, _, _ = s.do(t, http.MethodGet, "/api/v1/admin/payments", nil, customer)
	assert.Equal(t, http.StatusForbidden, code)
	code, _, _ = s.do(t, http.MethodPatch, "/api/v1/admin/payments/1/verify", nil, customer)
	assert.Equal(t, http.StatusForbidden, code)

	employee := employeeToken(t, s)
	code, _, _ = s.do(t, http.MethodPost, "/api/v1/payments", map[string]string{
		"amount": "10.00", "currency": "USD", "recipientAccount": "12345678", "swiftCode": "ABSAZAJJ",
	}, employee)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestPaymentLifecycle(t *testing.T) {
	s := newTestServer(t)
	customer := s.registerAndLogin(t, "janedoe1", "8001015009087", "1000000001")
	employee := employeeToken(t, s)

	code, body, _ := s.do(t, http.MethodPost, "/api/v1/payments", map[string]string{
		"amount": "0", "currency": "usd", "recipientAccount": "12", "swiftCode": "ABC",
	}, customer)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Len(t, body.Errors, 4)

	code, body, resp := s.do(t, http.MethodPost, "/api/v1/payments", map[string]string{
		"amount": "250.00", "currency": "EUR", "recipientAccount": "123456789", "swiftCode": "deutdeff500",
	}, customer)
	require.Equal(t, http.StatusCreated, code)
	assert.Contains(t, resp.Header.Get("Cache-Control"), "no-store")

	var created struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.Equal(t, "Pending", created.Status)

	code, body, _ = s.do(t, http.MethodGet, "/api/v1/payments", nil, customer)
	require.Equal(t, http.StatusOK, code)
	var mine []map[string]any
	require.NoError(t, json.Unmarshal(body.Data, &mine))
	require.Len(t, mine, 1)
	assert.NotContains(t, mine[0], "recipientAccount")

	code, body, _ = s.do(t, http.MethodGet, "/api/v1/admin/payments?status=Pending", nil, employee)
	require.Equal(t, http.StatusOK, code)
	var listing struct {
		Payments []struct {
			ID               uint    `json:"id"`
			RecipientAccount *string `json:"recipientAccount"`
			SwiftCode        *string `json:"swiftCode"`
		} `json:"payments"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &listing))
	require.Len(t, listing.Payments, 1)
	require.NotNil(t, listing.Payments[0].SwiftCode)
	assert.Equal(t, "DEUTDEFF500", *listing.Payments[0].SwiftCode)
	assert.Equal(t, "123456789", *listing.Payments[0].RecipientAccount)

	code, _, _ = s.do(t, http.MethodGet, "/api/v1/admin/payments?status=Bogus", nil, employee)
	assert.Equal(t, http.StatusBadRequest, code)

	id := created.ID
	code, _, _ = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/payments/%d/submit", id), nil, employee)
	assert.Equal(t, http.StatusConflict, code, "submit before verify")

	code, _, _ = s.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/admin/payments/%d/verify", id), nil, employee)
	assert.Equal(t, http.StatusOK, code)

	code, body, _ = s.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/admin/payments/%d/verify", id), nil, employee)
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, body.Error, "Verified")

	code, body, _ = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/payments/%d/submit", id), nil, employee)
	require.Equal(t, http.StatusOK, code)
	var submitted struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &submitted))
	assert.Equal(t, "Submitted to SWIFT", submitted.Status)

	code, body, _ = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/payments/%d/history", id), nil, employee)
	require.Equal(t, http.StatusOK, code)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(body.Data, &history))
	assert.Len(t, history, 3)

	code, _, _ = s.do(t, http.MethodPatch, "/api/v1/admin/payments/9999/verify", nil, employee)
	assert.Equal(t, http.StatusNotFound, code)
	code, _, _ = s.do(t, http.MethodPatch, "/api/v1/admin/payments/abc/verify", nil, employee)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err = s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
