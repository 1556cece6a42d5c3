package middleware

import (
	"crypto/subtle"
	"net/http"
)

// AdminKeyHeader содержит ключ администратора.
const AdminKeyHeader = "X-Admin-Key"

// AdminKey пропускает только запросы с правильным ключом администратора.
func AdminKey(key string) func(http.Handler) http.Handler {
	expected := []byte(key)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(AdminKeyHeader))
			if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
				writeError(w, http.StatusUnauthorized, "Admin authorization denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
