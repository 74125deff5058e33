package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/clipstream/backend/internal/models"
)

func registerForm(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	for field, filename := range files {
		part, err := writer.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create file part %s: %v", field, err)
		}
		if _, err := io.WriteString(part, "fake image bytes"); err != nil {
			t.Fatalf("write file part %s: %v", field, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestRegisterCreatesAccount(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := registerForm(t, map[string]string{
		"fullName": "Ava Stone",
		"email":    "ava@example.com",
		"username": "ava",
		"password": "supersafe123",
	}, map[string]string{"avatar": "avatar.png"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var resp struct {
		Data models.User `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.AvatarURL == "" {
		t.Fatal("expected avatar url on registered user")
	}

	stored, err := env.users.FindByUsernameOrEmail(req.Context(), "ava", "")
	if err != nil {
		t.Fatalf("expected user to be stored: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("supersafe123")) != nil {
		t.Fatal("stored password is not hashed")
	}
}

func TestRegisterRequiresAvatar(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := registerForm(t, map[string]string{
		"fullName": "Ava Stone",
		"email":    "ava@example.com",
		"username": "ava",
		"password": "supersafe123",
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
	if len(env.users.users) != 0 {
		t.Fatal("no user should be created without an avatar")
	}
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.users.users["user-1"] = models.User{ID: "user-1", Username: "ava", Email: "ava@example.com"}

	body, contentType := registerForm(t, map[string]string{
		"fullName": "Another Ava",
		"email":    "ava@example.com",
		"username": "ava",
		"password": "supersafe123",
	}, map[string]string{"avatar": "avatar.png"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status %d got %d", http.StatusConflict, rec.Code)
	}
}

func seedUser(t *testing.T, env *testEnv, id, username, password string) models.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		ID:       id,
		Username: username,
		Email:    username + "@example.com",
		FullName: "Test " + username,
		Password: string(hashed),
	}
	env.users.users[id] = user
	return user
}

func TestLoginUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	body, _ := json.Marshal(loginRequest{Username: "ghost", Password: "whatever"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "user-1", "ava", "password123")

	body, _ := json.Marshal(loginRequest{Username: "ava", Password: "not-the-password"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestLoginIssuesTokensAndCookies(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "user-1", "ava", "password123")

	body, _ := json.Marshal(loginRequest{Email: "ava@example.com", Password: "password123"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp struct {
		Data loginResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.AccessToken == "" || resp.Data.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued, got %+v", resp.Data)
	}
	if resp.Data.User.Password != "" {
		t.Fatal("password hash must not appear in the response")
	}

	cookies := rec.Result().Cookies()
	names := make(map[string]*http.Cookie, len(cookies))
	for _, cookie := range cookies {
		names[cookie.Name] = cookie
	}
	for _, want := range []string{"accessToken", "refreshToken"} {
		cookie, ok := names[want]
		if !ok {
			t.Fatalf("expected %s cookie to be set", want)
		}
		if !cookie.HttpOnly || !cookie.Secure {
			t.Fatalf("%s cookie must be http-only and secure", want)
		}
	}
}

func TestRefreshRotatesAndInvalidatesOldToken(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "user-1", "ava", "password123")

	pair, err := env.tokens.IssuePair(t.Context(), "user-1")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	body, _ := json.Marshal(refreshRequest{RefreshToken: pair.RefreshToken})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp struct {
		Data models.TokenPair `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.RefreshToken == "" || resp.Data.RefreshToken == pair.RefreshToken {
		t.Fatalf("rotation must mint a fresh refresh token, got %q", resp.Data.RefreshToken)
	}

	// replaying the consumed token must fail
	body, _ = json.Marshal(refreshRequest{RefreshToken: pair.RefreshToken})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestLogoutRevokesAndClearsCookies(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "user-1", "ava", "password123")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if len(env.tokens.revoked) != 1 || env.tokens.revoked[0] != "user-1" {
		t.Fatalf("expected user-1 to be revoked, got %v", env.tokens.revoked)
	}
	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge >= 0 && cookie.Value != "" {
			t.Fatalf("expected %s cookie to be expired", cookie.Name)
		}
	}
}

func TestChangePasswordRejectsWrongOldPassword(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "user-1", "ava", "password123")

	body, _ := json.Marshal(changePasswordRequest{OldPassword: "wrong", NewPassword: "newpassword1"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/change-password", bytes.NewReader(body))
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}
