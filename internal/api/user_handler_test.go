package api_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/taskhub-api/internal/api"
	"github.com/taskhub/taskhub-api/internal/service/avatar"
)

func TestRegisterEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("success returns user and token", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPost, "/users", "",
			`{"name":"Ada","email":"ADA@Example.com","password":"correcthorse","age":28}`)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decodeBody[api.AuthResponse](t, rec)
		assert.Equal(t, "Ada", resp.User.Name)
		assert.Equal(t, "ada@example.com", resp.User.Email)
		assert.Equal(t, 28, resp.User.Age)
		assert.NotEmpty(t, resp.Token)

		// The token works immediately.
		me := ts.do(t, http.MethodGet, "/users/me", resp.Token, "")
		assert.Equal(t, http.StatusOK, me.Code)
	})

	t.Run("response never carries credentials", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPost, "/users", "",
			`{"name":"Ada","email":"ada@example.com","password":"correcthorse"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		assert.NotContains(t, rec.Body.String(), "password")
		assert.NotContains(t, rec.Body.String(), "correcthorse")
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t)
		ts.register(t, "Ada", "ada@example.com")

		rec := ts.do(t, http.MethodPost, "/users", "",
			`{"name":"Other","email":"ada@example.com","password":"correcthorse"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid payloads", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t)

		tests := []struct {
			name string
			body string
		}{
			{"malformed json", `{"name":`},
			{"missing email", `{"name":"Ada","password":"correcthorse"}`},
			{"bad email", `{"name":"Ada","email":"nope","password":"correcthorse"}`},
			{"short password", `{"name":"Ada","email":"a@example.com","password":"abc"}`},
			{"password contains password", `{"name":"Ada","email":"a@example.com","password":"myPassword1"}`},
			{"negative age", `{"name":"Ada","email":"a@example.com","password":"correcthorse","age":-3}`},
		}
		for _, tc := range tests {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				rec := ts.do(t, http.MethodPost, "/users", "", tc.body)
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			})
		}
	})
}

func TestLoginEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ts.register(t, "Ada", "ada@example.com")

	t.Run("success", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/users/login", "",
			`{"email":"ada@example.com","password":"correcthorse"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decodeBody[api.AuthResponse](t, rec)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("wrong password and unknown user get the same error", func(t *testing.T) {
		wrongPass := ts.do(t, http.MethodPost, "/users/login", "",
			`{"email":"ada@example.com","password":"wronghorse"}`)
		unknown := ts.do(t, http.MethodPost, "/users/login", "",
			`{"email":"nobody@example.com","password":"correcthorse"}`)

		assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Equal(t, errorMessage(t, wrongPass), errorMessage(t, unknown))
	})
}

func TestLogoutEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("logout revokes only this session", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t)
		_, first := ts.register(t, "Ada", "ada@example.com")

		login := ts.do(t, http.MethodPost, "/users/login", "",
			`{"email":"ada@example.com","password":"correcthorse"}`)
		second := decodeBody[api.AuthResponse](t, login).Token

		rec := ts.do(t, http.MethodPost, "/users/logout", first, "")
		require.Equal(t, http.StatusOK, rec.Code)

		assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/users/me", first, "").Code)
		assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/users/me", second, "").Code)
	})

	t.Run("logoutAll revokes every session", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t)
		_, first := ts.register(t, "Ada", "ada@example.com")

		login := ts.do(t, http.MethodPost, "/users/login", "",
			`{"email":"ada@example.com","password":"correcthorse"}`)
		second := decodeBody[api.AuthResponse](t, login).Token

		rec := ts.do(t, http.MethodPost, "/users/logoutAll", first, "")
		require.Equal(t, http.StatusOK, rec.Code)

		assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/users/me", first, "").Code)
		assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/users/me", second, "").Code)
	})
}

func TestMeEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("get profile", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t)
		registered, token := ts.register(t, "Ada", "ada@example.com")

		rec := ts.do(t, http.MethodGet, "/users/me", token, "")
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decodeBody[api.UserResponse](t, rec)
		assert.Equal(t, registered.User.ID, resp.ID)
		assert.Equal(t, "ada@example.com", resp.Email)
	})

	t.Run("requires authentication", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodGet, "/users/me", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("patch allowed fields", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t)
		_, token := ts.register(t, "Ada", "ada@example.com")

		rec := ts.do(t, http.MethodPatch, "/users/me", token, `{"name":"Grace","age":35}`)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decodeBody[api.UserResponse](t, rec)
		assert.Equal(t, "Grace", resp.Name)
		assert.Equal(t, 35, resp.Age)
	})

	t.Run("patch with disallowed key is rejected wholesale", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t)
		_, token := ts.register(t, "Ada", "ada@example.com")

		rec := ts.do(t, http.MethodPatch, "/users/me", token, `{"name":"Grace","admin":true}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		me := decodeBody[api.UserResponse](t, ts.do(t, http.MethodGet, "/users/me", token, ""))
		assert.Equal(t, "Ada", me.Name)
	})

	t.Run("empty patch is rejected", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t)
		_, token := ts.register(t, "Ada", "ada@example.com")

		rec := ts.do(t, http.MethodPatch, "/users/me", token, `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete removes account and tasks", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t)
		_, token := ts.register(t, "Ada", "ada@example.com")

		create := ts.do(t, http.MethodPost, "/tasks", token, `{"description":"doomed"}`)
		require.Equal(t, http.StatusOK, create.Code)

		rec := ts.do(t, http.MethodDelete, "/users/me", token, "")
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decodeBody[api.UserResponse](t, rec)
		assert.Equal(t, "ada@example.com", resp.Email)

		assert.Equal(t, 0, ts.users.Count())
		assert.Equal(t, 0, ts.tasks.Count())

		// The deleted account's token no longer authenticates.
		assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/users/me", token, "").Code)
	})
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (ts *testServer) uploadAvatar(t *testing.T, token, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	contentType, body := multipartAvatar(t, filename, data)
	req := httptest.NewRequest(http.MethodPost, "/users/me/avatar", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func TestAvatarEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("upload then fetch publicly", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t)
		registered, token := ts.register(t, "Ada", "ada@example.com")

		rec := ts.uploadAvatar(t, token, "me.png", testPNG(t, 600, 400))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		// The fetch route needs no token.
		fetch := ts.do(t, http.MethodGet, "/users/"+registered.User.ID.String()+"/avatar", "", "")
		require.Equal(t, http.StatusOK, fetch.Code)
		assert.Equal(t, "image/png", fetch.Header().Get("Content-Type"))

		img, format, err := image.Decode(bytes.NewReader(fetch.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, "png", format)
		assert.Equal(t, avatar.TargetSize, img.Bounds().Dx())
		assert.Equal(t, avatar.TargetSize, img.Bounds().Dy())
	})

	t.Run("unsupported format", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t)
		_, token := ts.register(t, "Ada", "ada@example.com")

		rec := ts.uploadAvatar(t, token, "me.gif", testPNG(t, 10, 10))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, errorMessage(t, rec), ".jpg, .jpeg or .png")
	})

	t.Run("delete avatar", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t)
		registered, token := ts.register(t, "Ada", "ada@example.com")

		require.Equal(t, http.StatusOK, ts.uploadAvatar(t, token, "me.png", testPNG(t, 10, 10)).Code)

		rec := ts.do(t, http.MethodDelete, "/users/me/avatar", token, "")
		require.Equal(t, http.StatusOK, rec.Code)

		fetch := ts.do(t, http.MethodGet, "/users/"+registered.User.ID.String()+"/avatar", "", "")
		assert.Equal(t, http.StatusNotFound, fetch.Code)
	})

	t.Run("fetch misses all look alike", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t)
		registered, _ := ts.register(t, "Ada", "ada@example.com")

		// No avatar uploaded, unknown user, and malformed ID: same 404.
		noAvatar := ts.do(t, http.MethodGet, "/users/"+registered.User.ID.String()+"/avatar", "", "")
		unknown := ts.do(t, http.MethodGet, "/users/"+uuid.NewString()+"/avatar", "", "")
		malformed := ts.do(t, http.MethodGet, "/users/not-a-uuid/avatar", "", "")

		for _, rec := range []*httptest.ResponseRecorder{noAvatar, unknown, malformed} {
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, "Not found", errorMessage(t, rec))
		}
	})
}
