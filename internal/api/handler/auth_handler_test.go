package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/autoworks/jobcard-service/internal/core/domain"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, username, password string, role domain.Role) (*domain.Principal, error)
	loginFn    func(ctx context.Context, username, password string) (*domain.PrincipalView, error)
}

func (s *stubAuthService) Register(ctx context.Context, username, password string, role domain.Role) (*domain.Principal, error) {
	return s.registerFn(ctx, username, password, role)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (*domain.PrincipalView, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) IssueToken(p *domain.PrincipalView) (string, error) {
	return "token-for-" + p.ID, nil
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(_ context.Context, username, password string) (*domain.PrincipalView, error) {
			if username != "alice" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return &domain.PrincipalView{ID: "u1", Username: "alice", Role: domain.RoleEmployee}, nil
		},
	}
	handler := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"username":"alice","password":"secret"}`), rec)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["id"] != "u1" || resp["username"] != "alice" || resp["role"] != "employee" || resp["token"] != "token-for-u1" {
		t.Fatalf("unexpected body: %v", resp)
	}
	if _, leaked := resp["password_hash"]; leaked {
		t.Fatal("password hash must not be exposed")
	}
}

func TestAuthHandler_Login_PropagatesServiceErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind domain.Kind
	}{
		{"wrong credentials", domain.ErrWrongCredentials, domain.KindAuthentication},
		{"missing fields", domain.Validation("Missing username and/or password"), domain.KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubAuthService{
				loginFn: func(context.Context, string, string) (*domain.PrincipalView, error) { return nil, tc.err },
			}
			c := newEcho().NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"username":"alice"}`), httptest.NewRecorder())

			err := NewAuthHandler(stub).Login(c)
			if domain.KindOf(err) != tc.kind {
				t.Fatalf("expected %s error, got %v", tc.kind, err)
			}
		})
	}
}

func TestAuthHandler_Login_MalformedBody(t *testing.T) {
	c := newEcho().NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"username":`), httptest.NewRecorder())

	err := NewAuthHandler(&stubAuthService{}).Login(c)
	if domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAuthHandler_CreateUser_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(_ context.Context, username, password string, role domain.Role) (*domain.Principal, error) {
			if username != "bob" || password != "pw" || role != domain.RoleAdmin {
				t.Fatalf("unexpected args: %s %s %s", username, password, role)
			}
			return &domain.Principal{ID: "u2", Username: username, PasswordHash: "$2a$hash", Role: role}, nil
		},
	}
	rec := httptest.NewRecorder()
	c := newEcho().NewContext(jsonRequest(http.MethodPost, "/users", `{"username":"bob","password":"pw","role":"admin"}`), rec)

	if err := NewAuthHandler(stub).CreateUser(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "$2a$hash") {
		t.Fatalf("response leaks the hash: %s", rec.Body.String())
	}
}

func TestAuthHandler_CreateUser_ValidationError(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, string, string, domain.Role) (*domain.Principal, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	for _, body := range []string{
		`{"username":"bob","password":"pw","role":"client"}`,
		`{"username":"bob","role":"admin"}`,
		`{"password":"pw","role":"admin"}`,
	} {
		c := newEcho().NewContext(jsonRequest(http.MethodPost, "/users", body), httptest.NewRecorder())
		if err := NewAuthHandler(stub).CreateUser(c); domain.KindOf(err) != domain.KindValidation {
			t.Fatalf("body %s: expected validation error, got %v", body, err)
		}
	}
}
