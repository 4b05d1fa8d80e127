package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/neuraforge/collab-gateway/internal/api/handlers"
	"github.com/neuraforge/collab-gateway/internal/service"
	"github.com/neuraforge/collab-gateway/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(data))
	require.NoError(t, err)
	return resp
}

func TestAuthHandler_Register(t *testing.T) {
	ts := testutil.NewTestServer(t)

	testutil.NewUserBuilder().
		WithEmail("existing@example.com").
		Build(t, ts.Services)

	tests := []struct {
		name            string
		request         map[string]string
		expectedStatus  int
		expectedMessage string
		checkResponse   func(*testing.T, *http.Response)
	}{
		{
			name: "successful registration",
			request: map[string]string{
				"email":    "newuser@example.com",
				"password": "password123",
				"name":     "New User",
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result testutil.AuthResponse
				testutil.AssertJSONResponse(t, resp, &result)
				assert.Equal(t, "newuser@example.com", result.User.Email)
				assert.Equal(t, "New User", result.User.Name)
				assert.NotEmpty(t, result.User.ID)
				assert.NotEmpty(t, result.AccessToken)
				assert.NotEmpty(t, result.RefreshToken)
				assert.NotEqual(t, result.AccessToken, result.RefreshToken)
			},
		},
		{
			name: "missing name",
			request: map[string]string{
				"email":    "noname@example.com",
				"password": "password123",
			},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Email, password and name are required",
		},
		{
			name: "missing password",
			request: map[string]string{
				"email": "nopass@example.com",
				"name":  "No Pass",
			},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Email, password and name are required",
		},
		{
			name: "duplicate email",
			request: map[string]string{
				"email":    "existing@example.com",
				"password": "password123",
				"name":     "Someone Else",
			},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "User already exists",
		},
		{
			name:            "empty request body",
			request:         map[string]string{},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Email, password and name are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL("/auth/register"), tt.request)
			defer resp.Body.Close()

			if tt.expectedMessage != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedMessage)
				return
			}

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestAuthHandler_Register_InvalidJSON(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp, err := http.Post(ts.URL("/auth/register"), "application/json", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "Invalid request body")
}

func TestAuthHandler_Login(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, rawPassword := testutil.NewUserBuilder().
		WithEmail("login@example.com").
		WithPassword("correctpassword").
		Build(t, ts.Services)

	tests := []struct {
		name            string
		request         map[string]string
		expectedStatus  int
		expectedMessage string
		checkResponse   func(*testing.T, *http.Response)
	}{
		{
			name: "successful login",
			request: map[string]string{
				"email":    user.Email,
				"password": rawPassword,
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result testutil.AuthResponse
				testutil.AssertJSONResponse(t, resp, &result)
				assert.Equal(t, user.ID.String(), result.User.ID)
				assert.Equal(t, user.Name, result.User.Name)
				assert.NotEmpty(t, result.AccessToken)
				assert.NotEmpty(t, result.RefreshToken)
			},
		},
		{
			name: "demo user",
			request: map[string]string{
				"email":    service.DemoUserEmail,
				"password": service.DemoUserPassword,
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result testutil.AuthResponse
				testutil.AssertJSONResponse(t, resp, &result)
				assert.Equal(t, service.DemoUserName, result.User.Name)
			},
		},
		{
			name: "invalid password",
			request: map[string]string{
				"email":    user.Email,
				"password": "wrongpassword",
			},
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid credentials",
		},
		{
			name: "non-existent user",
			request: map[string]string{
				"email":    "nobody@example.com",
				"password": "anypassword",
			},
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid credentials",
		},
		{
			name: "email is case sensitive",
			request: map[string]string{
				"email":    "LOGIN@example.com",
				"password": rawPassword,
			},
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid credentials",
		},
		{
			name: "missing password",
			request: map[string]string{
				"email": user.Email,
			},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Email and password are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL("/auth/login"), tt.request)
			defer resp.Body.Close()

			if tt.expectedMessage != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedMessage)
				return
			}

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestAuthHandler_Profile(t *testing.T) {
	ts := testutil.NewTestServer(t)

	auth := testutil.NewUserBuilder().
		WithEmail("profile@example.com").
		WithName("Profile User").
		BuildAndAuthenticate(t, ts)

	tests := []struct {
		name            string
		token           string
		header          string
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:           "successful fetch with valid token",
			token:          auth.AccessToken,
			expectedStatus: http.StatusOK,
		},
		{
			name:            "missing authorization header",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Authorization header required",
		},
		{
			name:            "unknown token",
			token:           "access_doesnotexist",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid token",
		},
		{
			name:            "refresh token is not a bearer token",
			token:           auth.RefreshToken,
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid token",
		},
		{
			name:            "malformed header",
			header:          "Token " + auth.AccessToken,
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid authorization header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.URL("/auth/profile"), nil, tt.token)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			if tt.expectedMessage != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedMessage)
				return
			}

			require.Equal(t, tt.expectedStatus, resp.StatusCode)

			var result handlers.UserResponse
			testutil.AssertJSONResponse(t, resp, &result)
			assert.Equal(t, auth.User.ID, result.ID)
			assert.Equal(t, "profile@example.com", result.Email)
			assert.Equal(t, "Profile User", result.Name)
			assert.False(t, result.CreatedAt.IsZero())
		})
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	ts := testutil.NewTestServer(t)

	auth := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	t.Run("missing refresh token", func(t *testing.T) {
		resp := postJSON(t, ts.URL("/auth/refresh"), map[string]string{})
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "Refresh token is required")
	})

	t.Run("unknown refresh token", func(t *testing.T) {
		resp := postJSON(t, ts.URL("/auth/refresh"), map[string]string{"refreshToken": "refresh_unknown"})
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Invalid refresh token")
	})

	t.Run("access token cannot refresh", func(t *testing.T) {
		resp := postJSON(t, ts.URL("/auth/refresh"), map[string]string{"refreshToken": auth.AccessToken})
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Invalid refresh token")
	})

	t.Run("refresh issues a usable access token and stays valid", func(t *testing.T) {
		seen := map[string]bool{auth.AccessToken: true}

		for i := 0; i < 2; i++ {
			resp := postJSON(t, ts.URL("/auth/refresh"), map[string]string{"refreshToken": auth.RefreshToken})

			var result handlers.RefreshResponse
			require.Equal(t, http.StatusOK, resp.StatusCode)
			testutil.AssertJSONResponse(t, resp, &result)
			resp.Body.Close()

			require.NotEmpty(t, result.AccessToken)
			assert.False(t, seen[result.AccessToken], "refresh must mint a fresh token")
			seen[result.AccessToken] = true

			req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.URL("/auth/profile"), nil, result.AccessToken)
			profile, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, profile.StatusCode)
			profile.Body.Close()
		}
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	ts := testutil.NewTestServer(t)

	auth := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	logout := func(t *testing.T, token string) {
		t.Helper()

		req := testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.URL("/auth/logout"), nil, token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result handlers.LogoutResponse
		testutil.AssertJSONResponse(t, resp, &result)
		assert.True(t, result.Success)
		assert.Equal(t, "Logged out successfully", result.Message)
	}

	t.Run("revokes the presented token", func(t *testing.T) {
		logout(t, auth.AccessToken)

		req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.URL("/auth/profile"), nil, auth.AccessToken)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Invalid token")
	})

	t.Run("refresh token survives access logout", func(t *testing.T) {
		resp := postJSON(t, ts.URL("/auth/refresh"), map[string]string{"refreshToken": auth.RefreshToken})
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("repeat logout succeeds", func(t *testing.T) {
		logout(t, auth.AccessToken)
	})

	t.Run("no token succeeds", func(t *testing.T) {
		logout(t, "")
	})

	t.Run("unknown token succeeds", func(t *testing.T) {
		logout(t, "access_unknown")
	})
}
