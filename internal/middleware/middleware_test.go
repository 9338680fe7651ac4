package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eduportal/progress-service/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// mockTokenValidator is a mock implementation of TokenValidator
type mockTokenValidator struct {
	identity models.Identity
	err      error
	tokens   []string
}

func (m *mockTokenValidator) ValidateAccessToken(token string) (models.Identity, error) {
	m.tokens = append(m.tokens, token)
	if m.err != nil {
		return models.Identity{}, m.err
	}
	identity := m.identity
	identity.Token = token
	return identity, nil
}

func TestIdentityMiddleware(t *testing.T) {
	tests := []struct {
		name             string
		setupRequest     func(r *http.Request)
		validatorErr     error
		expectedStatus   int
		expectedIdentity models.Identity
		expectedToken    string
	}{
		{
			name:             "no token is anonymous",
			setupRequest:     func(r *http.Request) {},
			expectedStatus:   http.StatusOK,
			expectedIdentity: models.Anonymous,
		},
		{
			name: "bearer header",
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer header-token")
			},
			expectedStatus:   http.StatusOK,
			expectedIdentity: models.Identity{UserID: "7", Token: "header-token"},
			expectedToken:    "header-token",
		},
		{
			name: "cookie",
			setupRequest: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "cookie-token"})
			},
			expectedStatus:   http.StatusOK,
			expectedIdentity: models.Identity{UserID: "7", Token: "cookie-token"},
			expectedToken:    "cookie-token",
		},
		{
			name: "header wins over cookie",
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "bearer header-token")
				r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "cookie-token"})
			},
			expectedStatus:   http.StatusOK,
			expectedIdentity: models.Identity{UserID: "7", Token: "header-token"},
			expectedToken:    "header-token",
		},
		{
			name: "invalid token",
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer expired")
			},
			validatorErr:   errors.New("token expired"),
			expectedStatus: http.StatusUnauthorized,
			expectedToken:  "expired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := &mockTokenValidator{identity: models.Identity{UserID: "7"}, err: tt.validatorErr}
			var got models.Identity
			handler := IdentityMiddleware(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetIdentity(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setupRequest(req)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, tt.expectedIdentity, got)
			} else {
				assert.Contains(t, w.Body.String(), "invalid or expired token")
			}
			if tt.expectedToken != "" {
				assert.Equal(t, []string{tt.expectedToken}, validator.tokens)
			} else {
				assert.Empty(t, validator.tokens)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var got string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
	}))

	t.Run("generates id", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, got)
		assert.Equal(t, got, w.Header().Get(RequestIDHeader))
	})

	t.Run("keeps incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "req-1")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "req-1", got)
		assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
	})

	t.Run("replaces unusable incoming id", func(t *testing.T) {
		for _, incoming := range []string{"bad id\nforged=1", strings.Repeat("x", maxRequestIDLength+1)} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(RequestIDHeader, incoming)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.NotEqual(t, incoming, got)
			_, err := uuid.Parse(got)
			assert.NoError(t, err)
		}
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	validator := &mockTokenValidator{identity: models.Identity{UserID: "7", Token: "t"}}
	handler := RequestIDMiddleware(RecoveryMiddleware(zap.New(core))(
		IdentityMiddleware(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})),
	))

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set("Authorization", "Bearer t")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "panic recovered", logs.All()[0].Message)
	assert.Equal(t, "7", logs.All()[0].ContextMap()["user_id"])
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		allowed        []string
		origin         string
		method         string
		expectedOrigin string
		expectedStatus int
	}{
		{name: "wildcard echoes origin", allowed: []string{"*"}, origin: "https://app.example.com", method: http.MethodGet, expectedOrigin: "https://app.example.com", expectedStatus: http.StatusOK},
		{name: "listed origin", allowed: []string{"https://app.example.com"}, origin: "https://APP.example.com", method: http.MethodGet, expectedOrigin: "https://APP.example.com", expectedStatus: http.StatusOK},
		{name: "unlisted origin", allowed: []string{"https://app.example.com"}, origin: "https://evil.example.com", method: http.MethodGet, expectedStatus: http.StatusOK},
		{name: "no origin", allowed: []string{"*"}, method: http.MethodGet, expectedStatus: http.StatusOK},
		{name: "preflight", allowed: []string{"*"}, origin: "https://app.example.com", method: http.MethodOptions, expectedOrigin: "https://app.example.com", expectedStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := CORSMiddleware(tt.allowed)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(tt.method, "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	handler := RequestSizeLimitMiddleware(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("small body", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}")))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("large body", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"score": 100000}`)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestLoggerMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		authHeader     string
		expectedUserID any
	}{
		{name: "identity resolved by an inner router", authHeader: "Bearer t", expectedUserID: "7"},
		{name: "anonymous caller", authHeader: "", expectedUserID: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)
			validator := &mockTokenValidator{identity: models.Identity{UserID: "7", Token: "t"}}
			inner := IdentityMiddleware(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			handler := RequestIDMiddleware(LoggerMiddleware(zap.New(core))(inner))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/progress/lessons/a/complete", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, zap.WarnLevel, entry.Level)
			fields := entry.ContextMap()
			assert.Equal(t, int64(http.StatusBadGateway), fields["status"])
			assert.Equal(t, tt.expectedUserID, fields["user_id"])
			assert.NotEmpty(t, fields["request_id"])
		})
	}
}
