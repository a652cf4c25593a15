package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/jorisdh/appdepot/internal/config"
	"github.com/jorisdh/appdepot/internal/middleware"
	"github.com/jorisdh/appdepot/internal/model"
	"github.com/jorisdh/appdepot/internal/utils"
)

func testCfg() config.Config {
	return config.Config{JWTSecret: "test-secret", AccessTTLMin: 60, BcryptCost: 4}
}

func newAuthFixture() (*AuthHandler, *fakeUserStore, *fakeSettingStore) {
	users := newFakeUserStore()
	settings := &fakeSettingStore{values: map[string]string{model.RegistrationEnabledKey: "1"}}
	h := NewAuthHandler(testCfg(), users, &fakeTokenStore{users: users}, settings)
	return h, users, settings
}

func postJSON(e *echo.Echo, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRegisterGateClosed(t *testing.T) {
	h, users, settings := newAuthFixture()
	settings.values[model.RegistrationEnabledKey] = "0"

	e := echo.New()
	c, rec := postJSON(e, "/api/auth/register",
		`{"username":"eva","password":"pw1","email_address":"eva@example.com"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if len(users.users) != 0 {
		t.Fatal("user created while registration is disabled")
	}
}

func TestRegisterCreatesUser(t *testing.T) {
	h, users, _ := newAuthFixture()

	e := echo.New()
	c, rec := postJSON(e, "/api/auth/register",
		`{"username":"eva","password":"pw1","email_address":"Eva@Example.com","first_name":"Eva","last_name":"Jansen"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	u, err := users.GetByUsername(c.Request().Context(), "eva")
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if u.EmailAddress != "eva@example.com" {
		t.Fatalf("email not normalized: %q", u.EmailAddress)
	}
	if !u.IsEnabled {
		t.Fatal("new user should default to enabled")
	}
	if u.PasswordHash == "pw1" || u.PasswordHash == "" {
		t.Fatal("password not hashed")
	}
}

func TestRegisterMissingFields(t *testing.T) {
	h, _, _ := newAuthFixture()
	e := echo.New()
	c, rec := postJSON(e, "/api/auth/register", `{"username":"eva"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRegisterDuplicateEmailCreatesNoRow(t *testing.T) {
	h, users, _ := newAuthFixture()
	users.addUser(model.User{Username: "eva", EmailAddress: "eva@example.com", IsEnabled: true}, "pw1")

	e := echo.New()
	c, rec := postJSON(e, "/api/auth/register",
		`{"username":"other","password":"pw2","email_address":"eva@example.com"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body["field"] != "email_address" {
		t.Fatalf("field = %q, want email_address", body["field"])
	}
	if len(users.users) != 1 {
		t.Fatalf("user count = %d, want 1", len(users.users))
	}
}

func TestLoginIssuesValidToken(t *testing.T) {
	h, users, _ := newAuthFixture()
	id := users.addUser(model.User{Username: "admin", EmailAddress: "admin@example.com", IsEnabled: true}, "pw1")

	e := echo.New()
	c, rec := postJSON(e, "/api/auth/login", `{"username":"admin","password":"pw1"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Token  string `json:"token"`
		UserID uint64 `json:"user_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body.UserID != id {
		t.Fatalf("user_id = %d, want %d", body.UserID, id)
	}
	tokID, username, err := utils.TokenIdentity(testCfg().JWTSecret, body.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if tokID != id || username != "admin" {
		t.Fatalf("token identity = (%d,%q), want (%d,admin)", tokID, username, id)
	}
	if got := users.tokensByUser[id]; len(got) != 1 || got[0] != body.Token {
		t.Fatal("issued token not tracked in user_tokens")
	}
}

func TestLoginFailuresShareOneShape(t *testing.T) {
	h, users, _ := newAuthFixture()
	users.addUser(model.User{Username: "admin", EmailAddress: "a@example.com", IsEnabled: true}, "pw1")
	users.addUser(model.User{Username: "blocked", EmailAddress: "b@example.com", IsEnabled: false}, "pw1")

	cases := map[string]string{
		"wrong password": `{"username":"admin","password":"nope"}`,
		"unknown user":   `{"username":"ghost","password":"pw1"}`,
		"disabled user":  `{"username":"blocked","password":"pw1"}`,
	}
	var bodies []string
	for name, payload := range cases {
		e := echo.New()
		c, rec := postJSON(e, "/api/auth/login", payload)
		if err := h.Login(c); err != nil {
			t.Fatalf("%s: handler error: %v", name, err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want 401", name, rec.Code)
		}
		bodies = append(bodies, rec.Body.String())
	}
	for i := 1; i < len(bodies); i++ {
		if bodies[i] != bodies[0] {
			t.Fatalf("login failure bodies differ: %q vs %q", bodies[0], bodies[i])
		}
	}
}

// TestLoginThenUserInfo exercises the full happy path: login, present the
// returned bearer token to the middleware, and read back the same user.
func TestLoginThenUserInfo(t *testing.T) {
	h, users, _ := newAuthFixture()
	id := users.addUser(model.User{Username: "admin", FirstName: "Admin", LastName: "User",
		EmailAddress: "admin@example.com", IsEnabled: true}, "pw1")

	e := echo.New()
	c, rec := postJSON(e, "/api/auth/login", `{"username":"admin","password":"pw1"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("login error: %v", err)
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil {
		t.Fatalf("bad login body: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/userinfo", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec2 := httptest.NewRecorder()
	c2 := e.NewContext(req, rec2)

	protected := middleware.JWTAuth(testCfg().JWTSecret, users)(h.UserInfo)
	if err := protected(c2); err != nil {
		t.Fatalf("userinfo error: %v", err)
	}
	if rec2.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec2.Code, rec2.Body.String())
	}
	var info struct {
		ID        uint64 `json:"id"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
	}
	if err := json.Unmarshal(rec2.Body.Bytes(), &info); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if info.ID != id || info.Username != "admin" || info.FirstName != "Admin" {
		t.Fatalf("unexpected userinfo: %+v", info)
	}
}

func TestUserInfoUserGone(t *testing.T) {
	h, _, _ := newAuthFixture()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/userinfo", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(404)) // valid token, row since deleted

	if err := h.UserInfo(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
