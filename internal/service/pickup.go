package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// PickupCodeLength задаёт длину кода выдачи.
const PickupCodeLength = 6

const pickupAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

var pickupAlphabetSize = big.NewInt(int64(len(pickupAlphabet)))

// GeneratePickupCode возвращает случайный код выдачи из цифр и заглавных латинских букв.
func GeneratePickupCode() (string, error) {
	code := make([]byte, PickupCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, pickupAlphabetSize)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		code[i] = pickupAlphabet[n.Int64()]
	}
	return string(code), nil
}
