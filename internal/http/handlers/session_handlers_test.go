package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armin-soft/Fit-Master-sub001/domain"
)

func TestSessionHandlers_Status(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(t *testing.T, f *handlerFixture)
		path           string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "unknown client is logged out",
			setupMocks:     func(t *testing.T, f *handlerFixture) {},
			path:           "/api/auth/status",
			expectedStatus: http.StatusOK,
			expectedBody:   `{"isLoggedIn":false}`,
		},
		{
			name: "logged in student",
			setupMocks: func(t *testing.T, f *handlerFixture) {
				require.NoError(t, f.repo.Save(context.Background(), &domain.AuthRecord{
					Role: domain.RoleStudent, ClientID: "c1", IsLoggedIn: true, LoginPhone: testStudentPhone,
				}))
			},
			path:           "/api/student/auth/status",
			expectedStatus: http.StatusOK,
			expectedBody:   `{"isLoggedIn":true,"loginPhone":"09350001122"}`,
		},
		{
			name: "store failure",
			setupMocks: func(t *testing.T, f *handlerFixture) {
				f.repo.FindFunc = func(ctx context.Context, role domain.Role, clientID string) (*domain.AuthRecord, error) {
					return nil, errors.New("redis down")
				}
			},
			path:           "/api/auth/status",
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture(t)
			tt.setupMocks(t, f)

			w := f.do(t, http.MethodGet, tt.path, "c1", nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestSessionHandlers_Login(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		body           interface{}
		setupMocks     func(f *handlerFixture)
		expectedStatus int
		expectedCode   string
		expectsExpiry  bool
	}{
		{
			name:           "trainer with remember-me",
			path:           "/api/auth/login",
			body:           map[string]interface{}{"rememberMe": true},
			setupMocks:     func(f *handlerFixture) {},
			expectedStatus: http.StatusOK,
			expectsExpiry:  true,
		},
		{
			name:           "trainer without body",
			path:           "/api/auth/login",
			setupMocks:     func(f *handlerFixture) {},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "student without phone",
			path:           "/api/student/auth/login",
			body:           map[string]interface{}{"rememberMe": false},
			setupMocks:     func(f *handlerFixture) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "invalid_phone",
		},
		{
			name: "student without verified code",
			path: "/api/student/auth/login",
			body: map[string]interface{}{"phone": testStudentPhone},
			setupMocks: func(f *handlerFixture) {
				f.codes.ConsumeVerificationFunc = func(ctx context.Context, role domain.Role, phone string) (bool, error) {
					return false, nil
				}
			},
			expectedStatus: http.StatusForbidden,
			expectedCode:   "code_not_verified",
		},
		{
			name: "disabled student",
			path: "/api/student/auth/login",
			body: map[string]interface{}{"phone": testStudentPhone},
			setupMocks: func(f *handlerFixture) {
				f.identities.SetActive(testStudentPhone, false)
			},
			expectedStatus: http.StatusForbidden,
			expectedCode:   "account_disabled",
		},
		{
			name:           "malformed body",
			path:           "/api/auth/login",
			body:           "not an object",
			setupMocks:     func(f *handlerFixture) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "invalid_request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture(t)
			tt.setupMocks(f)

			w := f.do(t, http.MethodPost, tt.path, "c1", tt.body)

			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, body["code"])
			}
			_, hasExpiry := body["rememberMeExpiry"]
			assert.Equal(t, tt.expectsExpiry, hasExpiry)
		})
	}
}

func TestSessionHandlers_StepsAndLogout(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/api/student/auth/login-step", "c1", map[string]string{"step": "password"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/student/auth/login-step", "c1", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/student/auth/login-step", "c1", map[string]string{"step": "code", "phone": testStudentPhone})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/api/student/auth/status", "c1", nil)
	assert.JSONEq(t, `{"isLoggedIn":false,"loginStep":"code","loginPhone":"09350001122"}`, w.Body.String())

	w = f.do(t, http.MethodDelete, "/api/student/auth/login-step", "c1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(t, http.MethodGet, "/api/student/auth/status", "c1", nil)
	assert.JSONEq(t, `{"isLoggedIn":false}`, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/student/auth/login", "c1", map[string]interface{}{"phone": testStudentPhone})
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, http.MethodPost, "/api/student/auth/logout", "c1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(t, http.MethodGet, "/api/student/auth/status", "c1", nil)
	assert.JSONEq(t, `{"isLoggedIn":false}`, w.Body.String())
}

func TestSessionHandlers_Resume(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/api/auth/resume", "c1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"remember_me_expired"`)

	w = f.do(t, http.MethodPost, "/api/auth/login", "c1", map[string]interface{}{"rememberMe": true})
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, http.MethodPost, "/api/auth/resume", "c1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rememberMeExpiry")
}
