package authzkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

// TestMiddlewareOptions tests middleware configuration
func TestMiddlewareOptions(t *testing.T) {
	t.Run("Custom user ID extractor", func(t *testing.T) {
		mw := NewMiddleware(nil, WithUserIDExtractor(func(r *http.Request) string {
			return r.Header.Get("X-User-ID")
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User-ID", "user-1")
		assert.Equal(t, "user-1", mw.getUserID(req))
	})

	t.Run("Default extractor reads context", func(t *testing.T) {
		mw := NewMiddleware(nil)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithUserID(req.Context(), "user-2"))
		assert.Equal(t, "user-2", mw.getUserID(req))
	})

	t.Run("Custom error handler", func(t *testing.T) {
		var handled error
		mw := NewMiddleware(nil, WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			handled = err
			w.WriteHeader(http.StatusTeapot)
		}))

		var called bool
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		mw.RequirePermission(PermissionSendMessages)(okHandler(&called)).ServeHTTP(rec, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.True(t, IsForbidden(handled))
	})
}

// TestDefaultErrorHandler tests status mapping
func TestDefaultErrorHandler(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"Forbidden maps to 403", NewError(ErrForbidden, "nope"), http.StatusForbidden},
		{"Validation maps to 400", NewError(ErrValidation, "bad"), http.StatusBadRequest},
		{"Not found maps to 400", NewError(ErrNotFound, "missing"), http.StatusBadRequest},
		{"Anything else maps to 500", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			defaultErrorHandler(rec, req, tc.err)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

// TestRequirePermissionWithoutUser tests the anonymous-request path
func TestRequirePermissionWithoutUser(t *testing.T) {
	mw := NewMiddleware(nil)

	var called bool
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	mw.RequirePermission(PermissionSendMessages)(okHandler(&called)).ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// TestLoadPermissionsWithoutUser tests that anonymous requests pass through
func TestLoadPermissionsWithoutUser(t *testing.T) {
	mw := NewMiddleware(nil)

	var called bool
	var eff *EffectivePermissions
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		eff = FromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	mw.LoadPermissions()(handler).ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Nil(t, eff)
}

// TestInjectAuditContext tests request metadata extraction
func TestInjectAuditContext(t *testing.T) {
	mw := NewMiddleware(nil)

	t.Run("Headers land in context", func(t *testing.T) {
		var got AuditContext
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = GetAuditContext(r.Context())
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		req.Header.Set("User-Agent", "curl/8.0")
		req.Header.Set("X-Request-ID", "req-42")
		req = req.WithContext(WithUserID(req.Context(), "user-1"))

		mw.InjectAuditContext()(handler).ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "203.0.113.7", got.IPAddress)
		assert.Equal(t, "curl/8.0", got.UserAgent)
		assert.Equal(t, "req-42", got.RequestID)
		assert.Equal(t, "user-1", got.ActorID)
	})

	t.Run("Falls back to remote address", func(t *testing.T) {
		var ip string
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip = GetIPAddress(r.Context())
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		mw.InjectAuditContext()(handler).ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, req.RemoteAddr, ip)
	})
}

// TestMiddlewareIntegration tests permission enforcement against a real database
func TestMiddlewareIntegration(t *testing.T) {
	h := NewTestDataHelper(t)
	if h == nil {
		return
	}

	service := h.GetService()
	mw := NewMiddleware(service)

	userID := h.CreateTestUser("mw")
	role := h.CreateTestRole("mw", 0, PermissionSendMessages)
	h.AssignRole(userID, role.ID)

	withUser := func(req *http.Request) *http.Request {
		return req.WithContext(WithUserID(req.Context(), userID))
	}

	t.Run("Granted permission passes", func(t *testing.T) {
		var called bool
		rec := httptest.NewRecorder()
		req := withUser(httptest.NewRequest(http.MethodGet, "/", nil))
		mw.RequirePermission(PermissionSendMessages)(okHandler(&called)).ServeHTTP(rec, req)

		assert.True(t, called)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Missing permission is forbidden", func(t *testing.T) {
		var called bool
		rec := httptest.NewRecorder()
		req := withUser(httptest.NewRequest(http.MethodGet, "/", nil))
		mw.RequirePermission(PermissionBanMembers)(okHandler(&called)).ServeHTTP(rec, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Handler sees effective permissions", func(t *testing.T) {
		var eff *EffectivePermissions
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			eff = FromContext(r.Context())
		})

		req := withUser(httptest.NewRequest(http.MethodGet, "/", nil))
		mw.RequirePermission(PermissionSendMessages)(handler).ServeHTTP(httptest.NewRecorder(), req)

		require.NotNil(t, eff)
		assert.Equal(t, userID, eff.UserID)
	})

	t.Run("RequireAnyPermission", func(t *testing.T) {
		var called bool
		rec := httptest.NewRecorder()
		req := withUser(httptest.NewRequest(http.MethodGet, "/", nil))
		mw.RequireAnyPermission(PermissionBanMembers, PermissionSendMessages)(okHandler(&called)).ServeHTTP(rec, req)

		assert.True(t, called)
	})

	t.Run("RequireRoleManagement", func(t *testing.T) {
		var called bool
		rec := httptest.NewRecorder()
		req := withUser(httptest.NewRequest(http.MethodGet, "/", nil))
		mw.RequireRoleManagement()(okHandler(&called)).ServeHTTP(rec, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
