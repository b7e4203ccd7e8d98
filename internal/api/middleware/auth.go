package middleware

import (
	"net/http"
	"strings"

	"github.com/ajmal017/dailyScript/pkg/crypto"
)

// Auth - middleware аутентификации по статическому токену.
// Ожидает заголовок Authorization: Bearer <token> и сверяет токен
// с bcrypt-хешем из конфигурации. Если хеш не задан, API открыт
// (локальное развертывание с одним пользователем).
func Auth(tokenHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenHash == "" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !crypto.CheckPasswordMatch(token, tokenHash) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
