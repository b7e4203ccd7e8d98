package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ajmal017/dailyScript/pkg/crypto"
)

func authedHandler(tokenHash string) http.Handler {
	return Auth(tokenHash)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuth_OpenWithoutHash(t *testing.T) {
	rec := httptest.NewRecorder()
	authedHandler("").ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/pairs/running", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when no token hash is configured", rec.Code)
	}
}

func TestAuth_TokenFlow(t *testing.T) {
	hash, err := crypto.HashPassword("s3cret-token")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	handler := authedHandler(hash)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer s3cret-token", http.StatusOK},
		{"wrong token", "Bearer wrong", http.StatusUnauthorized},
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Basic s3cret-token", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/pairs/running", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
