package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nexh/focus/internal/domain"
	"github.com/nexh/focus/internal/store"
)

type contextKey string

const tenantContextKey contextKey = "tenant"

func TenantFromContext(ctx context.Context) *domain.Tenant {
	t, _ := ctx.Value(tenantContextKey).(*domain.Tenant)
	return t
}

func APIKeyAuth(tenantStore domain.TenantStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			apiKey := parts[1]
			hash := hashAPIKey(apiKey)

			tenant, err := tenantStore.GetByAPIKeyHash(r.Context(), hash)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeError(w, http.StatusUnauthorized, "invalid API key")
					return
				}
				writeError(w, http.StatusServiceUnavailable, "tenant lookup failed")
				return
			}

			if info, ok := r.Context().Value(requestInfoKey).(*requestInfo); ok {
				info.tenantID = tenant.ID.String()
			}
			ctx := context.WithValue(r.Context(), tenantContextKey, tenant)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func hashAPIKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}

// HashAPIKey is exported for use when creating tenants.
func HashAPIKey(key string) string {
	return hashAPIKey(key)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
