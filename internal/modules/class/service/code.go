package service

import (
	"crypto/rand"
	"math/big"

	"anoa.com/studyhub/internal/entity"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateCode returns a random upper case alphanumeric class code.
func GenerateCode() (string, error) {
	base := big.NewInt(int64(len(codeAlphabet)))
	code := make([]byte, entity.ClassCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}
