package middleware

import (
	"net/http"
	"time"

	"github.com/ajmal017/dailyScript/pkg/utils"
)

// responseWriter обёртка для захвата статуса и размера ответа
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Logging - middleware структурированного логирования HTTP запросов.
// Пишет метод, путь, статус, латентность, адрес клиента и размер ответа.
func Logging(log *utils.Logger) func(http.Handler) http.Handler {
	log = log.WithComponent("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(wrapped, r)

			log.Info("HTTP request",
				utils.String("method", r.Method),
				utils.String("path", r.URL.Path),
				utils.Int("status", wrapped.statusCode),
				utils.Latency(float64(time.Since(start).Microseconds())/1000.0),
				utils.String("remote", r.RemoteAddr),
				utils.Int64("bytes", wrapped.written),
			)
		})
	}
}
