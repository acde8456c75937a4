package passwords

import "golang.org/x/crypto/bcrypt"

// bcrypt: медленный солёный хэш, стоимость по умолчанию.
// Плэйнтекст нигде не храним и не логируем.

func Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(b), err
}

// Verify сообщает только "совпало/не совпало" — причину наружу не отдаём.
func Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
