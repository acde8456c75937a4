package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TTL токена фиксированный: 2 часа от выпуска, отзыва нет —
// токен живёт до истечения.
const TTL = 2 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Claims — состав токена: id, username и одна роль.
type Claims struct {
	UserID   uint   `json:"id"`
	Username string `json:"user"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer подписывает claims общим секретом (HS256). Секрет проверяется
// на старте процесса в config.validate — сюда пустым не доходит.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time // подменяется в тестах
}

func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: TTL, now: time.Now}
}

// Issue собирает подписанный токен для уже проверенной личности.
func (i *Issuer) Issue(userID uint, username, role string) (string, error) {
	now := i.now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(i.secret)
}

// Parse проверяет подпись и срок, возвращает claims.
func (i *Issuer) Parse(raw string) (*Claims, error) {
	var claims Claims
	t, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
