package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"
)

// CardNumberLength is the length of generated debit card numbers
const CardNumberLength = 16

// IssuerPrefix returns the leading digit for a card of the given type
func IssuerPrefix(cardType string) string {
	t := strings.ToUpper(cardType)
	switch {
	case strings.Contains(t, "VISA"):
		return "4"
	case strings.Contains(t, "MASTER"):
		return "5"
	default:
		return "6"
	}
}

// GenerateCardNumber generates a card number with the specified prefix and length.
// The last digit is a Luhn check digit
func GenerateCardNumber(prefix string, length int) (string, error) {
	if length <= len(prefix) || length > 19 {
		return "", fmt.Errorf("invalid card number length: %d", length)
	}

	var builder strings.Builder
	builder.WriteString(prefix)
	ten := big.NewInt(10)
	for builder.Len() < length-1 {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate random digits: %w", err)
		}
		builder.WriteByte(byte('0' + n.Int64()))
	}

	partial := builder.String()
	return partial + string(rune('0'+luhnCheckDigit(partial))), nil
}

// luhnCheckDigit computes the digit that makes partial+digit pass the Luhn check
func luhnCheckDigit(partial string) int {
	sum := 0
	double := true
	for i := len(partial) - 1; i >= 0; i-- {
		d := int(partial[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return (10 - sum%10) % 10
}

// ValidLuhn reports whether number consists of digits and passes the Luhn check
func ValidLuhn(number string) bool {
	if len(number) < 2 {
		return false
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return false
		}
	}
	return luhnCheckDigit(number[:len(number)-1]) == int(number[len(number)-1]-'0')
}

// GenerateExpirationDate returns the expiration timestamp for a card issued at now.
// Cards expire at the last second of the month, years after issuance
func GenerateExpirationDate(now time.Time, years int) time.Time {
	now = now.UTC()
	firstOfNextMonth := time.Date(now.Year()+years, now.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return firstOfNextMonth.Add(-time.Second)
}

// MaskCardNumber keeps only the last four digits visible
func MaskCardNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}

// GenerateHMAC generates an HMAC for a card number
func GenerateHMAC(cardNumber, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(cardNumber))
	return hex.EncodeToString(h.Sum(nil))
}

// Encrypt encrypts a string using AES with PKCS#5/PKCS#7 padding
func Encrypt(data string, key []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("input data is empty")
	}
	block, err := newBlock(key)
	if err != nil {
		return "", err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	dataBytes := []byte(data)
	padding := aes.BlockSize - len(dataBytes)%aes.BlockSize
	for i := 0; i < padding; i++ {
		dataBytes = append(dataBytes, byte(padding))
	}

	ciphertext := make([]byte, len(dataBytes))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, dataBytes)

	return hex.EncodeToString(append(iv, ciphertext...)), nil
}

// Decrypt decrypts a hex-encoded string produced by Encrypt
func Decrypt(encryptedData string, key []byte) (string, error) {
	if len(encryptedData) == 0 {
		return "", fmt.Errorf("encrypted data is empty")
	}
	block, err := newBlock(key)
	if err != nil {
		return "", err
	}

	data, err := hex.DecodeString(encryptedData)
	if err != nil {
		return "", fmt.Errorf("failed to decode hex: %w", err)
	}
	if len(data) < 2*aes.BlockSize {
		return "", fmt.Errorf("encrypted data too short: %d bytes", len(data))
	}

	iv := data[:aes.BlockSize]
	ciphertext := data[aes.BlockSize:]
	if len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("invalid ciphertext length: %d bytes", len(ciphertext))
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	padding := int(plaintext[len(plaintext)-1])
	if padding > aes.BlockSize || padding == 0 {
		return "", fmt.Errorf("invalid padding value: %d", padding)
	}
	for i := len(plaintext) - padding; i < len(plaintext); i++ {
		if int(plaintext[i]) != padding {
			return "", fmt.Errorf("invalid padding bytes at position %d", i)
		}
	}

	return string(plaintext[:len(plaintext)-padding]), nil
}

func newBlock(key []byte) (cipher.Block, error) {
	if len(key) != 16 && len(key) != 24 && len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 16, 24, or 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return block, nil
}
