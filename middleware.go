package authzkit

import (
	"net/http"
)

// Middleware provides HTTP middleware for permission checking.
type Middleware struct {
	service      *Service
	getUserID    func(*http.Request) string
	errorHandler func(http.ResponseWriter, *http.Request, error)
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance.
//
// Example:
//
//	mw := authzkit.NewMiddleware(service,
//	    authzkit.WithUserIDExtractor(func(r *http.Request) string {
//	        return r.Header.Get("X-User-ID")
//	    }),
//	)
func NewMiddleware(service *Service, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		service:      service,
		getUserID:    defaultGetUserID,
		errorHandler: defaultErrorHandler,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// WithUserIDExtractor sets a custom function to extract user ID from request.
func WithUserIDExtractor(fn func(*http.Request) string) MiddlewareOption {
	return func(m *Middleware) {
		m.getUserID = fn
	}
}

// WithErrorHandler sets a custom error handler for middleware.
func WithErrorHandler(fn func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *Middleware) {
		m.errorHandler = fn
	}
}

func defaultGetUserID(r *http.Request) string {
	return GetUserID(r.Context())
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	if IsForbidden(err) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if IsValidation(err) || IsNotFound(err) {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// RequirePermission creates middleware that requires a specific permission.
// Administrators pass every permission gate.
//
// Example:
//
//	router.With(mw.RequirePermission(authzkit.PermissionManageChannels)).
//	    Post("/channels", createChannelHandler)
func (m *Middleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := m.getUserID(r)
			if userID == "" {
				m.errorHandler(w, r, NewError(ErrForbidden, "no user ID in request"))
				return
			}

			eff, err := m.service.EffectivePermissionsFor(ctx, userID)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}

			if !eff.Has(permission) {
				m.errorHandler(w, r, NewError(ErrForbidden, "missing required permission: "+permission).
					WithUser(userID))
				return
			}

			// Permissions stay available to the handler
			ctx = WithEffectivePermissions(ctx, eff)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAnyPermission creates middleware that requires any of the specified permissions.
//
// Example:
//
//	router.With(mw.RequireAnyPermission(authzkit.PermissionKickMembers, authzkit.PermissionBanMembers)).
//	    Delete("/members/{memberID}", removeMemberHandler)
func (m *Middleware) RequireAnyPermission(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := m.getUserID(r)
			if userID == "" {
				m.errorHandler(w, r, NewError(ErrForbidden, "no user ID in request"))
				return
			}

			eff, err := m.service.EffectivePermissionsFor(ctx, userID)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}

			if !eff.HasAny(permissions...) {
				m.errorHandler(w, r, NewError(ErrForbidden, "missing required permission").
					WithUser(userID))
				return
			}

			ctx = WithEffectivePermissions(ctx, eff)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoleManagement creates middleware that requires the ability to manage
// roles, either via manage_roles or administrator.
func (m *Middleware) RequireRoleManagement() func(http.Handler) http.Handler {
	return m.RequireAnyPermission(PermissionManageRoles, PermissionAdministrator)
}

// LoadPermissions creates middleware that loads the user's effective
// permissions into context without enforcing anything. Use this when you
// want to do permission checks in the handler rather than in middleware.
//
// Example:
//
//	router.With(mw.LoadPermissions()).Get("/dashboard", dashboardHandler)
//
//	func dashboardHandler(w http.ResponseWriter, r *http.Request) {
//	    eff := authzkit.FromContext(r.Context())
//	    if eff != nil && eff.Has(authzkit.PermissionViewAuditLog) {
//	        // Show the audit panel
//	    }
//	}
func (m *Middleware) LoadPermissions() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := m.getUserID(r)
			if userID == "" {
				// No user, continue without permissions
				next.ServeHTTP(w, r)
				return
			}

			eff, err := m.service.EffectivePermissionsFor(ctx, userID)
			if err != nil {
				// Continue without permissions, handlers decide
				next.ServeHTTP(w, r)
				return
			}

			ctx = WithEffectivePermissions(ctx, eff)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// InjectAuditContext creates middleware that extracts audit information from
// the request and adds it to the context, so role and assignment mutations
// record who acted from where.
//
// Example:
//
//	router.Use(mw.InjectAuditContext())
func (m *Middleware) InjectAuditContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := r.Header.Get("X-Forwarded-For")
			if ip == "" {
				ip = r.Header.Get("X-Real-IP")
			}
			if ip == "" {
				ip = r.RemoteAddr
			}
			ctx = WithIPAddress(ctx, ip)
			ctx = WithUserAgent(ctx, r.UserAgent())

			// Request ID is commonly set by upstream middleware
			if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
				ctx = WithRequestID(ctx, requestID)
			}

			if userID := m.getUserID(r); userID != "" {
				ctx = WithActorID(ctx, userID)
				ctx = WithUserID(ctx, userID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
