package repo

import (
	"errors"
	"strings"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Normalize — канонический вид username/имён для сравнения и хранения:
// без регистра и внешних пробелов ("Bob " == "bob").
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
