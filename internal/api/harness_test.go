package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/taskhub-api/internal/api"
	apimiddleware "github.com/taskhub/taskhub-api/internal/api/middleware"
	"github.com/taskhub/taskhub-api/internal/config"
	"github.com/taskhub/taskhub-api/internal/mocks"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/service/auth"
	"github.com/taskhub/taskhub-api/internal/service/avatar"
	"golang.org/x/crypto/bcrypt"
)

// testServer wires the real handlers, middleware, and services over
// in-memory stores, mirroring the production router's layout.
type testServer struct {
	router *chi.Mux
	users  *mocks.MockUserStore
	tasks  *mocks.MockTaskStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	users := mocks.NewMockUserStore()
	tasks := mocks.NewMockTaskStore()
	txRunner := &mocks.MockTxRunner{}

	jwtService, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:            "0123456789abcdef0123456789abcdef",
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	userService := service.NewUserService(users, tasks, txRunner, hasher, hasher, jwtService, logger)
	taskService := service.NewTaskService(tasks, logger)

	userHandler := api.NewUserHandler(userService, avatar.NewProcessor())
	taskHandler := api.NewTaskHandler(taskService)
	authMiddleware := apimiddleware.NewAuthMiddleware(jwtService, users)

	r := chi.NewRouter()
	r.Route("/users", func(r chi.Router) {
		r.Post("/", userHandler.Register)
		r.Post("/login", userHandler.Login)
		r.Get("/{id}/avatar", userHandler.GetAvatar)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Post("/logout", userHandler.Logout)
			r.Post("/logoutAll", userHandler.LogoutAll)
			r.Get("/me", userHandler.Me)
			r.Patch("/me", userHandler.UpdateMe)
			r.Delete("/me", userHandler.DeleteMe)
			r.Post("/me/avatar", userHandler.UploadAvatar)
			r.Delete("/me/avatar", userHandler.DeleteAvatar)
		})
	})
	r.Route("/tasks", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Post("/", taskHandler.Create)
		r.Get("/", taskHandler.List)
		r.Get("/{id}", taskHandler.Get)
		r.Patch("/{id}", taskHandler.Update)
		r.Delete("/{id}", taskHandler.Delete)
	})

	return &testServer{router: r, users: users, tasks: tasks}
}

// do executes a request against the test router. A non-empty token is sent
// as a bearer credential.
func (ts *testServer) do(t *testing.T, method, path, token string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

// register creates an account through the API and returns the decoded
// auth response.
func (ts *testServer) register(t *testing.T, name, email string) (api.AuthResponse, string) {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"name":     name,
		"email":    email,
		"password": "correcthorse",
		"age":      28,
	})
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPost, "/users", "", string(payload))
	require.Equal(t, http.StatusOK, rec.Code, "register failed: %s", rec.Body.String())

	var resp api.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp, resp.Token
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

// multipartAvatar builds a multipart body carrying the given file bytes in
// the "avatar" field.
func multipartAvatar(t *testing.T, filename string, data []byte) (string, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return w.FormDataContentType(), &buf
}
