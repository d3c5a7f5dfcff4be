package stego

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"
)

// Sealed payloads look like
//
//	##ENC##<iterations>$<base64 salt>:<base64url nonce|ciphertext>
//
// The iteration count travels with the payload so images sealed under an
// older configuration still open after the default changes.
const (
	sealTag  = "##ENC##"
	saltSize = 16
	keySize  = chacha20poly1305.KeySize
)

var (
	ErrPasswordRequired = errors.New("message is encrypted: password required")
	ErrBadPassword      = errors.New("invalid password or corrupted data")
)

// MaxKDFIterations bounds the PBKDF2 work factor accepted by Seal and Open.
const MaxKDFIterations = 10_000_000

// IsSealed reports whether payload carries the password envelope tag.
func IsSealed(payload []byte) bool {
	return bytes.HasPrefix(payload, []byte(sealTag))
}

// Seal encrypts message under a key derived from password.
func Seal(message []byte, password string, iterations int) ([]byte, error) {
	if password == "" {
		return nil, errors.New("seal: password is empty")
	}
	if iterations <= 0 || iterations > MaxKDFIterations {
		return nil, fmt.Errorf("seal: invalid iteration count %d", iterations)
	}
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	aead, err := chacha20poly1305.New(deriveKey(password, salt, iterations))
	if err != nil {
		return nil, fmt.Errorf("failed to create AEAD cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(message)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	body := aead.Seal(nonce, nonce, message, nil)

	var out bytes.Buffer
	out.WriteString(sealTag)
	out.WriteString(strconv.Itoa(iterations))
	out.WriteByte('$')
	out.WriteString(base64.StdEncoding.EncodeToString(salt))
	out.WriteByte(':')
	out.WriteString(base64.URLEncoding.EncodeToString(body))
	return out.Bytes(), nil
}

// Open reverses Seal. A payload without the envelope tag is returned as-is.
func Open(payload []byte, password string) ([]byte, error) {
	if !IsSealed(payload) {
		return payload, nil
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	rest := payload[len(sealTag):]

	iterPart, rest, ok := bytes.Cut(rest, []byte("$"))
	if !ok {
		return nil, ErrBadPassword
	}
	iterations, err := strconv.Atoi(string(iterPart))
	if err != nil || iterations <= 0 || iterations > MaxKDFIterations {
		return nil, ErrBadPassword
	}
	saltPart, bodyPart, ok := bytes.Cut(rest, []byte(":"))
	if !ok {
		return nil, ErrBadPassword
	}
	salt, err := base64.StdEncoding.DecodeString(string(saltPart))
	if err != nil || len(salt) != saltSize {
		return nil, ErrBadPassword
	}
	body, err := base64.URLEncoding.DecodeString(string(bodyPart))
	if err != nil {
		return nil, ErrBadPassword
	}

	aead, err := chacha20poly1305.New(deriveKey(password, salt, iterations))
	if err != nil {
		return nil, fmt.Errorf("failed to create AEAD cipher: %w", err)
	}
	if len(body) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrBadPassword
	}
	nonce, ct := body[:aead.NonceSize()], body[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, ErrBadPassword
	}
	return plain, nil
}

func deriveKey(password string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(password), salt, iterations, keySize, sha256.New)
}
