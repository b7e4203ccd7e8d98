package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/ajmal017/dailyScript/pkg/utils"
)

// Recovery - middleware восстановления после паники в handlers.
// Перехватывает панику, логирует stack trace и возвращает клиенту
// 500, не роняя сервер.
func Recovery(log *utils.Logger) func(http.Handler) http.Handler {
	log = log.WithComponent("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("Panic in HTTP handler",
						utils.String("method", r.Method),
						utils.String("path", r.URL.Path),
						utils.Any("panic", err),
						utils.String("stack", string(debug.Stack())),
					)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
