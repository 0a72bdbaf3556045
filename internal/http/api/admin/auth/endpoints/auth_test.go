package endpoints

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-labs/iris/internal/db"
	"github.com/lumen-labs/iris/internal/http/api"
	"github.com/lumen-labs/iris/internal/model"
)

const testSecret = "test-secret"

type authFakeStore struct {
	db.Store

	users  map[int]model.User
	nextID int
}

func newAuthFakeStore() *authFakeStore {
	return &authFakeStore{users: map[int]model.User{}}
}

func (f *authFakeStore) CreateUser(email, hashedPassword string, name *string) (int, error) {
	f.nextID++
	f.users[f.nextID] = model.User{ID: f.nextID, Email: email, HashedPassword: hashedPassword, Name: name}
	return f.nextID, nil
}

func (f *authFakeStore) GetUserByEmail(email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *authFakeStore) GetUserByID(id int) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (f *authFakeStore) UpdateUserProfile(id int, email string, name *string) error {
	u, ok := f.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Email = email
	if name != nil {
		u.Name = name
	}
	f.users[id] = u
	return nil
}

func setupAuthRouter(t *testing.T) (*gin.Engine, *authFakeStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newAuthFakeStore()
	r := gin.New()
	api.MountGroup(r, api.GroupConfig{Prefix: "/api/v1"}, AuthPublicModule(testSecret, store))
	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/v1",
		Auth:      true,
		SecretKey: testSecret,
		Store:     store,
	}, AuthSessionModule(testSecret, store))
	return r, store
}

func doJSON(t *testing.T, router *gin.Engine, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func signup(t *testing.T, router *gin.Engine, email, password string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", "",
		map[string]any{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestSignupAndLogin(t *testing.T) {
	router, store := setupAuthRouter(t)

	signup(t, router, "ops@example.com", "hunter22hunter")

	stored, err := store.GetUserByEmail("ops@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22hunter", stored.HashedPassword, "password must be stored hashed")

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "",
		map[string]any{"email": "ops@example.com", "password": "hunter22hunter"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
}

func TestSignupValidation(t *testing.T) {
	router, _ := setupAuthRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", "",
		map[string]any{"email": "not-an-email", "password": "hunter22hunter"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", "",
		map[string]any{"email": "ops@example.com", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignupDuplicateEmail(t *testing.T) {
	router, _ := setupAuthRouter(t)

	signup(t, router, "ops@example.com", "hunter22hunter")

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", "",
		map[string]any{"email": "ops@example.com", "password": "another-password"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	router, _ := setupAuthRouter(t)

	signup(t, router, "ops@example.com", "hunter22hunter")

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "",
		map[string]any{"email": "ops@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "",
		map[string]any{"email": "nobody@example.com", "password": "hunter22hunter"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfileRoundTrip(t *testing.T) {
	router, _ := setupAuthRouter(t)

	token := signup(t, router, "ops@example.com", "hunter22hunter")

	w := doJSON(t, router, http.MethodGet, "/api/v1/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var profile struct {
		ID    int     `json:"id"`
		Email string  `json:"email"`
		Name  *string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "ops@example.com", profile.Email)
	assert.Nil(t, profile.Name)

	w = doJSON(t, router, http.MethodPut, "/api/v1/auth/profile", token,
		map[string]any{"email": "ops@example.com", "name": "Iris Admin"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	require.NotNil(t, profile.Name)
	assert.Equal(t, "Iris Admin", *profile.Name)
}

func TestProfileRequiresToken(t *testing.T) {
	router, _ := setupAuthRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfileEmailConflict(t *testing.T) {
	router, _ := setupAuthRouter(t)

	signup(t, router, "first@example.com", "hunter22hunter")
	token := signup(t, router, "second@example.com", "hunter22hunter")

	w := doJSON(t, router, http.MethodPut, "/api/v1/auth/profile", token,
		map[string]any{"email": "first@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)
}
