package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/abezemskiy/gophauth/internal/common/identity/tools/header"
	"github.com/abezemskiy/gophauth/internal/common/identity/tools/token"
	"github.com/abezemskiy/gophauth/internal/repositories/identity"
	"github.com/abezemskiy/gophauth/internal/repositories/mocks"
	"github.com/abezemskiy/gophauth/internal/repositories/session"
	"github.com/abezemskiy/gophauth/internal/server/identity/auth"
	"github.com/abezemskiy/gophauth/internal/server/identity/authenticator"
	"github.com/abezemskiy/gophauth/internal/server/identity/login"
	"github.com/abezemskiy/gophauth/internal/server/sessions/memory"
	"github.com/abezemskiy/gophauth/internal/server/storage/inmemory"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRedirects = Redirects{Success: "/home", Failure: "/login"}

func newSessions(t *testing.T) *memory.Store {
	t.Helper()
	sessions, err := memory.NewStore(time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { sessions.Close() })
	return sessions
}

func createUser(t *testing.T, users identity.UserStore, username, password string) identity.UserRecord {
	t.Helper()
	digest, salt, err := authenticator.PrepareForStorage(password)
	require.NoError(t, err)
	user, err := users.Create(context.Background(), identity.UserRecord{
		Username:       username,
		PasswordDigest: digest,
		Salt:           salt,
	})
	require.NoError(t, err)
	return user
}

func jsonBody(t *testing.T, username, password string) []byte {
	t.Helper()
	body, err := json.Marshal(identity.Credentials{Username: username, Password: password})
	require.NoError(t, err)
	return body
}

// multipartBody - тело HTML формы с enctype="multipart/form-data" и его Content-Type.
func multipartBody(t *testing.T, username, password string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("username", username))
	require.NoError(t, mw.WriteField("password", password))
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func TestRegister(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// хранилище с уникальными логинами
	uniqueStore := inmemory.NewStore(inmemory.WithUniqueUsernames())
	createUser(t, uniqueStore, "already", "password")

	// хранилище, которое возвращает ошибку
	failing := mocks.NewMockUserStore(ctrl)
	failing.EXPECT().Create(gomock.Any(), gomock.Any()).Return(identity.UserRecord{}, errors.New("db is down"))

	multipartOK, multipartType := multipartBody(t, "multipart user", "secret")
	multipartEmpty, multipartEmptyType := multipartBody(t, "", "secret")

	type request struct {
		body        []byte
		contentType string
		stor        identity.UserStore
	}
	type want struct {
		status int
	}
	tests := []struct {
		name string
		req  request
		want want
	}{
		{
			name: "success register from json",
			req:  request{body: jsonBody(t, "feathers", "supersecret"), contentType: "application/json", stor: uniqueStore},
			want: want{status: http.StatusCreated},
		},
		{
			name: "success register from form",
			req: request{
				body:        []byte(url.Values{"username": {"form user"}, "password": {"secret"}}.Encode()),
				contentType: "application/x-www-form-urlencoded",
				stor:        uniqueStore,
			},
			want: want{status: http.StatusCreated},
		},
		{
			name: "success register from multipart form",
			req:  request{body: multipartOK, contentType: multipartType, stor: uniqueStore},
			want: want{status: http.StatusCreated},
		},
		{
			name: "multipart form without login",
			req:  request{body: multipartEmpty, contentType: multipartEmptyType, stor: nil},
			want: want{status: http.StatusBadRequest},
		},
		{
			name: "user already register",
			req:  request{body: jsonBody(t, "already", "password"), contentType: "application/json", stor: uniqueStore},
			want: want{status: http.StatusConflict},
		},
		{
			name: "internal server error while register",
			req:  request{body: jsonBody(t, "internal", "password"), contentType: "application/json", stor: failing},
			want: want{status: http.StatusInternalServerError},
		},
		{
			name: "bad body",
			req:  request{body: []byte("bad body"), contentType: "application/json", stor: nil},
			want: want{status: http.StatusBadRequest},
		},
		{
			name: "bad login",
			req:  request{body: jsonBody(t, "", "password"), contentType: "application/json", stor: nil},
			want: want{status: http.StatusBadRequest},
		},
		{
			name: "too long login",
			req:  request{body: jsonBody(t, strings.Repeat("a", 129), "password"), contentType: "application/json", stor: nil},
			want: want{status: http.StatusBadRequest},
		},
		{
			name: "bad password",
			req:  request{body: jsonBody(t, "login", ""), contentType: "application/json", stor: nil},
			want: want{status: http.StatusBadRequest},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Post("/test", RegisterHandler(tt.req.stor))

			request := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBuffer(tt.req.body))
			request.Header.Set("Content-Type", tt.req.contentType)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, request)

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.want.status, res.StatusCode)

			if tt.want.status == http.StatusCreated {
				var body map[string]any
				require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
				assert.NotEmpty(t, body["id"])
				assert.NotEmpty(t, body["created_at"])
				// хэш пароля и соль не передаются клиенту
				assert.NotContains(t, body, "PasswordDigest")
				assert.NotContains(t, body, "Salt")
			}
		})
	}

	// пароль хранится только в виде хэша
	records, err := uniqueStore.FindByUsername(context.Background(), "feathers")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotEqual(t, "supersecret", records[0].PasswordDigest)
	assert.NotEmpty(t, records[0].Salt)

	records, err = uniqueStore.FindByUsername(context.Background(), "multipart user")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLogin(t *testing.T) {
	token.SetSecretKey("test key")
	token.SetExpireHour(1)

	users := inmemory.NewStore()
	createUser(t, users, "feathers", "supersecret")
	sessions := newSessions(t)
	controller := login.NewController(authenticator.New(users), sessions, time.Hour)

	form := func(username, password string) []byte {
		return []byte(url.Values{"username": {username}, "password": {password}}.Encode())
	}
	multipartOK, multipartType := multipartBody(t, "feathers", "supersecret")
	multipartWrong, multipartWrongType := multipartBody(t, "feathers", "wrong")

	type request struct {
		body        []byte
		contentType string
	}
	type want struct {
		status   int
		location string
		cookie   bool
	}
	tests := []struct {
		name string
		req  request
		want want
	}{
		{
			name: "json success",
			req:  request{body: jsonBody(t, "feathers", "supersecret"), contentType: "application/json"},
			want: want{status: http.StatusOK, cookie: true},
		},
		{
			name: "json wrong password",
			req:  request{body: jsonBody(t, "feathers", "wrong"), contentType: "application/json"},
			want: want{status: http.StatusUnauthorized},
		},
		{
			name: "json unknown user",
			req:  request{body: jsonBody(t, "nobody", "supersecret"), contentType: "application/json"},
			want: want{status: http.StatusUnauthorized},
		},
		{
			name: "form success",
			req:  request{body: form("feathers", "supersecret"), contentType: "application/x-www-form-urlencoded"},
			want: want{status: http.StatusSeeOther, location: testRedirects.Success, cookie: true},
		},
		{
			name: "form wrong password",
			req:  request{body: form("feathers", "wrong"), contentType: "application/x-www-form-urlencoded"},
			want: want{status: http.StatusSeeOther, location: testRedirects.Failure},
		},
		{
			// отказ для неизвестного пользователя неотличим от неверного пароля
			name: "form unknown user",
			req:  request{body: form("nobody", "supersecret"), contentType: "application/x-www-form-urlencoded"},
			want: want{status: http.StatusSeeOther, location: testRedirects.Failure},
		},
		{
			name: "multipart form success",
			req:  request{body: multipartOK, contentType: multipartType},
			want: want{status: http.StatusSeeOther, location: testRedirects.Success, cookie: true},
		},
		{
			name: "multipart form wrong password",
			req:  request{body: multipartWrong, contentType: multipartWrongType},
			want: want{status: http.StatusSeeOther, location: testRedirects.Failure},
		},
		{
			name: "bad body",
			req:  request{body: []byte("{"), contentType: "application/json"},
			want: want{status: http.StatusBadRequest},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Post("/test", LoginHandler(controller, testRedirects))

			request := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBuffer(tt.req.body))
			request.Header.Set("Content-Type", tt.req.contentType)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, request)

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.want.status, res.StatusCode)
			if tt.want.location != "" {
				assert.Equal(t, tt.want.location, res.Header.Get("Location"))
			}

			var cookie *http.Cookie
			for _, c := range res.Cookies() {
				if c.Name == header.CookieName {
					cookie = c
				}
			}
			if !tt.want.cookie {
				assert.Nil(t, cookie)
				return
			}
			require.NotNil(t, cookie)
			assert.True(t, cookie.HttpOnly)
			assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

			// токен указывает на сохранённую сессию пользователя
			sid, err := token.GetSessionIDFromToken(cookie.Value)
			require.NoError(t, err)
			_, ok, err := sessions.Load(context.Background(), sid)
			require.NoError(t, err)
			assert.True(t, ok)

			headerToken, err := header.GetTokenFromResponseHeader(res)
			require.NoError(t, err)
			assert.Equal(t, cookie.Value, headerToken)
		})
	}
}

func TestLoginJSONResponse(t *testing.T) {
	token.SetSecretKey("test key")
	token.SetExpireHour(1)

	users := inmemory.NewStore()
	createUser(t, users, "feathers", "supersecret")
	controller := login.NewController(authenticator.New(users), newSessions(t), time.Hour)

	request := httptest.NewRequest(http.MethodPost, "/", bytes.NewBuffer(jsonBody(t, "feathers", "supersecret")))
	request.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	Login(w, request, controller, testRedirects)

	var body LoginResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, testRedirects.Success, body.Redirect)

	// ответ об отказе не раскрывает причину
	request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBuffer(jsonBody(t, "nobody", "x")))
	w = httptest.NewRecorder()
	Login(w, request, controller, testRedirects)
	assert.Equal(t, ErrLoginFailed.Error()+"\n", w.Body.String())
}

func TestLoginStoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	users := inmemory.NewStore()
	createUser(t, users, "feathers", "supersecret")
	keeper := mocks.NewMockTokenKeeper(ctrl)
	keeper.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis is down"))
	controller := login.NewController(authenticator.New(users), keeper, time.Hour)

	request := httptest.NewRequest(http.MethodPost, "/", bytes.NewBuffer(jsonBody(t, "feathers", "supersecret")))
	w := httptest.NewRecorder()
	Login(w, request, controller, testRedirects)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func withSession(req *http.Request, user identity.UserRecord, sessionID string) *http.Request {
	ctx := context.WithValue(req.Context(), auth.UserKey, user)
	ctx = context.WithValue(ctx, auth.SessionIDKey, sessionID)
	return req.WithContext(ctx)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	users := inmemory.NewStore()
	user := createUser(t, users, "feathers", "supersecret")
	sessions := newSessions(t)
	require.NoError(t, sessions.Save(ctx, "sid", session.SessionToken{ID: user.ID}, time.Hour))
	controller := login.NewController(authenticator.New(users), sessions, time.Hour)

	w := httptest.NewRecorder()
	LogoutHandler(controller)(w, withSession(httptest.NewRequest(http.MethodPost, "/", nil), user, "sid"))
	assert.Equal(t, http.StatusOK, w.Code)

	_, ok, err := sessions.Load(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, ok)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, header.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].MaxAge < 0)

	// без сессии в контексте
	w = httptest.NewRecorder()
	LogoutHandler(controller)(w, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMe(t *testing.T) {
	user := identity.UserRecord{
		ID:             "id",
		Username:       "feathers",
		PasswordDigest: "digest",
		Salt:           "salt",
		CreatedAt:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	w := httptest.NewRecorder()
	MeHandler()(w, withSession(httptest.NewRequest(http.MethodGet, "/", nil), user, "sid"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"id","username":"feathers","created_at":"2024-01-02T03:04:05Z"}`, w.Body.String())

	w = httptest.NewRecorder()
	MeHandler()(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	users := inmemory.NewStore()
	user := createUser(t, users, "feathers", "supersecret")
	sessions := newSessions(t)
	require.NoError(t, sessions.Save(ctx, "sid", session.SessionToken{ID: user.ID}, time.Hour))
	controller := login.NewController(authenticator.New(users), sessions, time.Hour)

	w := httptest.NewRecorder()
	DeleteAccountHandler(users, controller)(w, withSession(httptest.NewRequest(http.MethodDelete, "/", nil), user, "sid"))
	assert.Equal(t, http.StatusOK, w.Code)

	_, ok, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = sessions.Load(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, ok)

	// повторное удаление
	w = httptest.NewRecorder()
	DeleteAccountHandler(users, controller)(w, withSession(httptest.NewRequest(http.MethodDelete, "/", nil), user, "sid"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// ошибка хранилища
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	failing := mocks.NewMockUserStore(ctrl)
	failing.EXPECT().Delete(gomock.Any(), user.ID).Return(false, errors.New("db is down"))
	w = httptest.NewRecorder()
	DeleteAccountHandler(failing, controller)(w, withSession(httptest.NewRequest(http.MethodDelete, "/", nil), user, "sid"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandleOtherRequest(t *testing.T) {
	r := chi.NewRouter()
	r.NotFound(HandleOtherRequest())

	request := httptest.NewRequest(http.MethodGet, "/unknown", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, request)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "text/plain", res.Header.Get("Content-Type"))
}
