package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/unrolled/secure"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/access"
)

// refreshProfileHeader が true の場合、キャッシュを破棄して権限プロファイルを再取得します。
const refreshProfileHeader = "X-Refresh-Profile"

type subjectContextKey struct{}

func requestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			entry := logger.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
			})
			if ww.Status() >= http.StatusInternalServerError {
				entry.Warn("http request")
				return
			}
			entry.Info("http request")
		})
	}
}

func secureHeaders(production bool, logger logrus.FieldLogger) func(http.Handler) http.Handler {
	sm := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'",
		SSLRedirect:           production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !production,
	})
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := sm.Process(w, r); err != nil {
				logger.WithError(err).Warn("secure headers blocked request")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// authenticate はトークンから利用者を特定し、Principal をコンテキストに格納します。
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerToken(r.Header.Get("Authorization"))
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: %v", access.ErrUnauthenticated, err))
			return
		}
		subject, err := h.tokens.Subject(raw)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		force, _ := strconv.ParseBool(r.Header.Get(refreshProfileHeader))
		principal, err := h.principals.Resolve(r.Context(), access.ResolveInput{Subject: subject, ForceRefresh: force})
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		ctx := access.WithPrincipal(r.Context(), principal)
		ctx = context.WithValue(ctx, subjectContextKey{}, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin は管理者以外の利用を拒否します。
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := access.PrincipalFromContext(r.Context())
		if !ok {
			h.writeError(w, r, access.ErrUnauthenticated)
			return
		}
		if !principal.IsAdmin {
			h.writeError(w, r, access.ErrAdminRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func subjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(subjectContextKey{}).(string)
	return s
}
