package middleware

import (
	"fmt"
	"net/http"
	"time"
)

// Профили кэширования для справочных GET'ов (категории и т.п.).
const (
	CacheDefault10 = 10 * time.Second
	CacheDefault20 = 20 * time.Second
)

// CacheControl выставляет max-age на ответ; оборачиваем точечно,
// только для идемпотентных read-эндпоинтов.
func CacheControl(d time.Duration) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(d.Seconds())))
			next(w, r)
		}
	}
}
