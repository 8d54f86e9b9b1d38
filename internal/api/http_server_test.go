package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"userapi/internal/auth"
	"userapi/internal/config"
	"userapi/internal/entity/common"
	"userapi/internal/model"
	"userapi/internal/model/memory"
	"userapi/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
)

// unreachableRepo panics on any store access.
type unreachableRepo struct {
	model.Repository
}

func testConfig() config.Config {
	return config.Config{
		AppEnv:               config.EnvDevelopment,
		QueryTimeout:         time.Second,
		MaxPageSize:          100,
		JWTSecret:            "test-secret",
		JWTIssuer:            "userapi-test",
		JWTExpirationMinutes: 5,
	}
}

func newTestRouter(t *testing.T, repo model.Repository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler, err := NewHTTPHandler(testConfig(), repo, Options{
		Logger:  quietLogger(),
		Metrics: observability.NewProm(prometheus.NewRegistry()),
		Hasher:  auth.NewHasher(bcrypt.MinCost),
	})
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}
	r := gin.New()
	handler.Routes(r)
	return r
}

type apiResponse struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	Data       json.RawMessage    `json:"data"`
	Pagination *common.Pagination `json:"pagination"`
	Errors     json.RawMessage    `json:"errors"`
	Code       string             `json:"code"`
}

func doRequest(t *testing.T, r http.Handler, method, path, body string, headers ...string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response %q: %v", w.Body.String(), err)
		}
	}
	return w, resp
}

func TestCreateUserTwiceReturnsConflict(t *testing.T) {
	r := newTestRouter(t, memory.NewRepository())
	body := `{"email":"a@x.com","password":"secret"}`

	w, resp := doRequest(t, r, http.MethodPost, "/api/users", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if !resp.Success || resp.Message != "User created successfully" {
		t.Fatalf("unexpected create response: %+v", resp)
	}
	if strings.Contains(string(resp.Data), "secret") || strings.Contains(string(resp.Data), "password") {
		t.Fatalf("password leaked in response: %s", resp.Data)
	}

	w, resp = doRequest(t, r, http.MethodPost, "/api/users", body)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	if resp.Success || !strings.Contains(resp.Message, "email") {
		t.Fatalf("expected conflict message mentioning email, got %+v", resp)
	}
	if resp.Code != "UNIQUE_VIOLATION" {
		t.Fatalf("expected development code, got %q", resp.Code)
	}
	var conflict map[string]string
	if err := json.Unmarshal(resp.Errors, &conflict); err != nil {
		t.Fatalf("failed to decode errors %s: %v", resp.Errors, err)
	}
	if conflict["field"] != "email" || conflict["value"] != "already exists" {
		t.Fatalf("unexpected conflict errors: %v", conflict)
	}
}

func TestCreateUserValidation(t *testing.T) {
	r := newTestRouter(t, memory.NewRepository())

	tests := []struct {
		name string
		body string
	}{
		{"MissingPassword", `{"email":"a@x.com"}`},
		{"MissingEmail", `{"password":"secret"}`},
		{"BadEmail", `{"email":"nope","password":"secret"}`},
		{"ShortPassword", `{"email":"a@x.com","password":"123"}`},
		{"EmptyBody", ``},
		{"BadJSON", `{"email":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := doRequest(t, r, http.MethodPost, "/api/users", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
			if resp.Success {
				t.Fatal("expected success=false")
			}
		})
	}
}

func TestListUsersPagination(t *testing.T) {
	r := newTestRouter(t, memory.NewRepository())
	for _, email := range []string{"ann@x.com", "dan@x.com", "bob@x.com"} {
		if w, _ := doRequest(t, r, http.MethodPost, "/api/users", `{"email":"`+email+`","password":"secret"}`); w.Code != http.StatusCreated {
			t.Fatalf("seed %s: %d", email, w.Code)
		}
	}

	w, resp := doRequest(t, r, http.MethodGet, "/api/users?page=1&limit=1&search=AN&sortBy=email&sortOrder=asc", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if resp.Pagination == nil {
		t.Fatal("expected pagination block")
	}
	want := common.Pagination{Total: 2, Page: 1, Limit: 1, TotalPages: 2, HasMore: true}
	if *resp.Pagination != want {
		t.Fatalf("expected %+v, got %+v", want, *resp.Pagination)
	}
	var users []struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(resp.Data, &users); err != nil {
		t.Fatalf("failed to decode users: %v", err)
	}
	if len(users) != 1 || users[0].Email != "ann@x.com" {
		t.Fatalf("unexpected users: %+v", users)
	}

	for _, query := range []string{"page=abc", "limit=0", "sortBy=password", "sortOrder=sideways", "limit=1000", "page=922337203685477582&limit=10"} {
		w, _ := doRequest(t, r, http.MethodGet, "/api/users?"+query, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for %s, got %d", query, w.Code)
		}
	}
}

func TestGetUserRendersEmptyRelations(t *testing.T) {
	r := newTestRouter(t, memory.NewRepository())
	if w, _ := doRequest(t, r, http.MethodPost, "/api/users", `{"email":"a@x.com","password":"secret"}`); w.Code != http.StatusCreated {
		t.Fatalf("create user: %d", w.Code)
	}

	w, resp := doRequest(t, r, http.MethodGet, "/api/users/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	for _, want := range []string{`"roles":[]`, `"posts":[]`} {
		if !strings.Contains(string(resp.Data), want) {
			t.Errorf("expected %s in %s", want, resp.Data)
		}
	}

	w, resp = doRequest(t, r, http.MethodGet, "/api/users?includeRoles=false", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.Contains(string(resp.Data), `"roles"`) || !strings.Contains(string(resp.Data), `"posts":[]`) {
		t.Fatalf("unexpected relations in %s", resp.Data)
	}
}

func TestUserNotFoundPaths(t *testing.T) {
	r := newTestRouter(t, memory.NewRepository())

	w, resp := doRequest(t, r, http.MethodDelete, "/api/users/999", "")
	if w.Code != http.StatusNotFound || resp.Message != "Record not found" {
		t.Fatalf("expected 404 Record not found, got %d %+v", w.Code, resp)
	}

	w, resp = doRequest(t, r, http.MethodGet, "/api/users/999", "")
	if w.Code != http.StatusNotFound || resp.Message != "User not found" {
		t.Fatalf("expected 404 User not found, got %d %+v", w.Code, resp)
	}

	w, resp = doRequest(t, r, http.MethodGet, "/api/users/abc", "")
	if w.Code != http.StatusBadRequest || resp.Message != "Invalid user ID" {
		t.Fatalf("expected 400 Invalid user ID, got %d %+v", w.Code, resp)
	}

	w, resp = doRequest(t, r, http.MethodDelete, "/api/users/1/roles/2", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing assignment, got %d %+v", w.Code, resp)
	}
}

func TestAssignRolesRequiresArrayBeforeStoreAccess(t *testing.T) {
	r := newTestRouter(t, unreachableRepo{})

	for _, body := range []string{`{"roleIds":"1"}`, `{"roleIds":1}`, `{}`, `{"roleIds":null}`} {
		w, resp := doRequest(t, r, http.MethodPost, "/api/users/1/roles", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d: %s", body, w.Code, w.Body.String())
		}
		if resp.Message != "roleIds must be an array" {
			t.Fatalf("unexpected message for %s: %q", body, resp.Message)
		}
	}
}

func TestAssignRolesRejectsBadElementsBeforeStoreAccess(t *testing.T) {
	r := newTestRouter(t, unreachableRepo{})

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"Negative", `{"roleIds":[-1]}`, "roleIds"},
		{"String", `{"roleIds":["a"]}`, "roleIds"},
		{"Zero", `{"roleIds":[1,0]}`, "roleIds[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := doRequest(t, r, http.MethodPost, "/api/users/1/roles", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
			if resp.Message != "Validation failed" {
				t.Fatalf("expected validation failure, got %q", resp.Message)
			}
			if !strings.Contains(string(resp.Errors), tt.field) {
				t.Fatalf("expected errors to name %s, got %s", tt.field, resp.Errors)
			}
		})
	}
}

func TestRoleAssignmentFlow(t *testing.T) {
	r := newTestRouter(t, memory.NewRepository())

	if w, _ := doRequest(t, r, http.MethodPost, "/api/users", `{"email":"a@x.com","password":"secret"}`); w.Code != http.StatusCreated {
		t.Fatalf("create user: %d", w.Code)
	}
	if w, _ := doRequest(t, r, http.MethodPost, "/api/roles", `{"roleName":"admin"}`); w.Code != http.StatusCreated {
		t.Fatalf("create role: %d", w.Code)
	}

	w, resp := doRequest(t, r, http.MethodPost, "/api/users/1/roles", `{"roleIds":[1]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var links []struct {
		UserID uint `json:"userId"`
		RoleID uint `json:"roleId"`
	}
	if err := json.Unmarshal(resp.Data, &links); err != nil || len(links) != 1 || links[0].RoleID != 1 {
		t.Fatalf("unexpected assignments %s (%v)", resp.Data, err)
	}

	w, _ = doRequest(t, r, http.MethodPost, "/api/users/1/roles", `{"roleIds":[1]}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate assignment, got %d", w.Code)
	}

	w, resp = doRequest(t, r, http.MethodPost, "/api/users/1/roles", `{"roleIds":[42]}`)
	if w.Code != http.StatusBadRequest || resp.Message != "Invalid reference: related record does not exist" {
		t.Fatalf("expected foreign key 400, got %d %+v", w.Code, resp)
	}

	if w, _ := doRequest(t, r, http.MethodDelete, "/api/users/1/roles/1", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200 on remove, got %d", w.Code)
	}
}

func TestPostEndpoints(t *testing.T) {
	r := newTestRouter(t, memory.NewRepository())

	w, resp := doRequest(t, r, http.MethodPost, "/api/posts", `{"title":"hello","authorId":1}`)
	if w.Code != http.StatusBadRequest || resp.Message != "Invalid reference: related record does not exist" {
		t.Fatalf("expected foreign key 400, got %d %+v", w.Code, resp)
	}

	doRequest(t, r, http.MethodPost, "/api/users", `{"email":"a@x.com","password":"secret"}`)
	w, resp = doRequest(t, r, http.MethodPost, "/api/posts", `{"title":"hello","authorId":1}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var post struct {
		Published bool `json:"published"`
		Author    *struct {
			Email string `json:"email"`
		} `json:"author"`
	}
	if err := json.Unmarshal(resp.Data, &post); err != nil {
		t.Fatalf("decode post: %v", err)
	}
	if post.Published || post.Author == nil || post.Author.Email != "a@x.com" {
		t.Fatalf("unexpected post: %s", resp.Data)
	}

	if w, _ := doRequest(t, r, http.MethodDelete, "/api/users/1", ""); w.Code != http.StatusOK {
		t.Fatalf("delete user: %d", w.Code)
	}
	w, resp = doRequest(t, r, http.MethodGet, "/api/posts", "")
	if w.Code != http.StatusOK || string(resp.Data) != "[]" {
		t.Fatalf("expected posts removed with author, got %d %s", w.Code, resp.Data)
	}
}

func TestLoginAndBearerToken(t *testing.T) {
	r := newTestRouter(t, memory.NewRepository())
	doRequest(t, r, http.MethodPost, "/api/users", `{"email":"a@x.com","password":"secret"}`)

	w, _ := doRequest(t, r, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"wrong1"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", w.Code)
	}

	w, resp := doRequest(t, r, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"secret"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var session struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Data, &session); err != nil || session.Token == "" {
		t.Fatalf("expected token, got %s (%v)", resp.Data, err)
	}

	w, _ = doRequest(t, r, http.MethodGet, "/api/auth/me", "", "Authorization", "Bearer "+session.Token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from /me, got %d: %s", w.Code, w.Body.String())
	}

	w, resp = doRequest(t, r, http.MethodGet, "/api/users", "", "Authorization", "Bearer not-a-token")
	if w.Code != http.StatusUnauthorized || resp.Message != "Invalid token" {
		t.Fatalf("expected 401 Invalid token, got %d %+v", w.Code, resp)
	}

	w, resp = doRequest(t, r, http.MethodGet, "/api/auth/me", "")
	if w.Code != http.StatusUnauthorized || resp.Message != "Invalid token" {
		t.Fatalf("expected 401 without token, got %d %+v", w.Code, resp)
	}
}

func TestPingAndRequestID(t *testing.T) {
	r := newTestRouter(t, memory.NewRepository())

	w, resp := doRequest(t, r, http.MethodGet, "/", "", "X-Request-Id", "req-1")
	if w.Code != http.StatusOK || !resp.Success {
		t.Fatalf("expected healthy ping, got %d %+v", w.Code, resp)
	}
	if got := w.Header().Get("X-Request-Id"); got != "req-1" {
		t.Fatalf("expected request id echoed, got %q", got)
	}

	w, _ = doRequest(t, r, http.MethodGet, "/nope", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", w.Code)
	}
}
