package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core/user"
	"github.com/trezcool/academia/services/throttle"
	"github.com/trezcool/academia/tests"
)

func Test_home(t *testing.T) {
	e := setup(t)
	rec := e.serve(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Academia API!", rec.Body.String())
}

func Test_userAPI_register(t *testing.T) {
	e := setup(t)

	admin := testutil.CreateUser(t, e.usrRepo, "admin@test.cd", "admin", user.RoleAdmin)
	student := testutil.CreateUser(t, e.usrRepo, "student@test.cd", "student", user.RoleStudent)
	adminToken := e.token(t, admin)

	body := func(email, uname, pwd string, role user.Role) []byte {
		return marshallObj(t, user.NewUser{Email: email, Username: uname, Password: pwd, Role: role})
	}

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodPost, path: "/register/",
			body: body("new@test.cd", "new", testutil.Password, user.RoleStudent),
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken),
		},
		{
			name: "Invalid token", method: http.MethodPost, path: "/register", token: "lol",
			body: body("new@test.cd", "new", testutil.Password, user.RoleStudent),
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name: "Admin required", method: http.MethodPost, path: "/register", token: e.token(t, student),
			body: body("new@test.cd", "new", testutil.Password, user.RoleStudent),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden),
		},
		{
			name: "Email taken", method: http.MethodPost, path: "/register", token: adminToken,
			body:     body("STUDENT@test.cd", "other", testutil.Password, user.RoleStudent),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name: "Unknown role", method: http.MethodPost, path: "/register", token: adminToken,
			body:     body("new@test.cd", "new", testutil.Password, "janitor"),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "Weak password", method: http.MethodPost, path: "/register", token: adminToken,
			body:     body("new@test.cd", "new", "123", user.RoleStudent),
			wantCode: http.StatusBadRequest,
		},
	}
	runHTTPTests(t, e, tests)

	t.Run("Register", func(t *testing.T) {
		rec := e.serve(http.MethodPost, "/register/", adminToken, body(" New@Test.cd ", "newbie", testutil.Password, user.RoleSponsor))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "new@test.cd", got["email"])
		assert.Equal(t, "newbie", got["username"])
		assert.Equal(t, string(user.RoleSponsor), got["role"])
		assert.NotContains(t, got, "password")
		assert.NotContains(t, got, "password_hash")

		usr, err := e.usrSvc.GetByEmail(context.Background(), "new@test.cd")
		require.NoError(t, err)
		assert.NoError(t, usr.CheckPassword(testutil.Password))
	})
}

func Test_userAPI_login(t *testing.T) {
	e := setup(t)
	usr := testutil.CreateUser(t, e.usrRepo, "user@test.cd", "user", user.RoleStudent)

	creds := func(email, pwd string) []byte {
		return marshallObj(t, user.Credentials{Email: email, Password: pwd})
	}
	badCreds := marshallObj(t, httpErr{Error: user.ErrInvalidCredentials.Error()})

	tests := []httpTest{
		{name: "Empty body", method: http.MethodPost, path: "/login", wantCode: http.StatusBadRequest},
		{name: "Unknown email", method: http.MethodPost, path: "/login", body: creds("who@test.cd", testutil.Password), wantCode: http.StatusBadRequest, wantData: badCreds},
		{name: "Wrong password", method: http.MethodPost, path: "/login/", body: creds("user@test.cd", "nope"), wantCode: http.StatusBadRequest, wantData: badCreds},
	}
	runHTTPTests(t, e, tests)

	t.Run("Token is created once", func(t *testing.T) {
		var first, second user.Token

		rec := e.serve(http.MethodPost, "/login", "", creds("USER@test.cd", testutil.Password))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
		require.NotEmpty(t, first.Key)

		rec = e.serve(http.MethodPost, "/login", "", creds("user@test.cd", testutil.Password))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
		assert.Equal(t, first.Key, second.Key)

		// the token authenticates its user
		got, err := e.usrSvc.GetByToken(context.Background(), first.Key)
		require.NoError(t, err)
		assert.Equal(t, usr.ID, got.ID)

		// both schemes are accepted
		req, rec := newRequest(http.MethodGet, "/api/course")
		req.Header.Set("Authorization", "Bearer "+first.Key)
		e.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_userAPI_loginThrottle(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	e := setup(t, throttle.NewRedisLimiter(rdb, "login", 2, time.Minute))
	testutil.CreateUser(t, e.usrRepo, "user@test.cd", "user", user.RoleStudent)

	right := marshallObj(t, user.Credentials{Email: "user@test.cd", Password: testutil.Password})

	// changing the email's case does not reset the counter
	for _, email := range []string{"user@test.cd", " USER@Test.cd "} {
		wrong := marshallObj(t, user.Credentials{Email: email, Password: "nope"})
		rec := e.serve(http.MethodPost, "/login", "", wrong)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}

	rec := e.serve(http.MethodPost, "/login", "", right)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	checkCodeAndData(t, httpTest{wantCode: http.StatusTooManyRequests, wantData: marshallObj(t, httpErr{Error: "too many login attempts"})}, rec)

	mr.FastForward(2 * time.Minute)
	rec = e.serve(http.MethodPost, "/login", "", right)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
