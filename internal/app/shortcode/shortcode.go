package shortcode

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultLength — длина короткого кода по умолчанию, даёт пространство 62^7
const DefaultLength = 7

const maxAttempts = 10

// CodeChecker проверяет занятость кода в пространствах коротких кодов и алиасов
type CodeChecker interface {
	CodeInUse(ctx context.Context, code string) (bool, error)
}

// Generate возвращает случайный код указанной длины из 62-символьного алфавита
func Generate(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random index: %w", err)
		}
		code[i] = alphabet[n.Int64()]
	}
	return string(code), nil
}

// GenerateUnique генерирует код и проверяет его уникальность в хранилище,
// до 10 попыток. После исчерпания попыток возвращается один код длиной
// length+2 без повторной проверки: остаточный риск коллизии проявится как
// нарушение уникальности при вставке.
func GenerateUnique(ctx context.Context, checker CodeChecker, length int) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		code, err := Generate(length)
		if err != nil {
			return "", err
		}

		inUse, err := checker.CodeInUse(ctx, code)
		if err != nil {
			return "", fmt.Errorf("uniqueness check failed: %w", err)
		}
		if !inUse {
			return code, nil
		}
	}

	return Generate(length + 2)
}
