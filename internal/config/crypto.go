package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	encPrefix    = "enc:"
	secretKeyEnv = "IANF_SECRET_KEY"
)

// SecretKey decrypts API credentials stored encrypted in config files.
// Uses AES-256-GCM for authenticated encryption.
type SecretKey struct {
	key []byte
}

// NewSecretKey derives the key from IANF_SECRET_KEY, or loads (creating on
// first use) a random key at ~/.ianfluencer/secret.key.
func NewSecretKey() (*SecretKey, error) {
	if raw := os.Getenv(secretKeyEnv); raw != "" {
		return NewSecretKeyFromPassphrase(raw), nil
	}

	keyPath := filepath.Join(homeDir(), ".ianfluencer", "secret.key")
	if data, err := os.ReadFile(keyPath); err == nil && len(data) >= 32 {
		return &SecretKey{key: data[:32]}, nil
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, errors.Wrap(err, "generate secret key")
	}
	if err := os.MkdirAll(filepath.Dir(keyPath), 0700); err != nil {
		return nil, errors.Wrap(err, "create key directory")
	}
	if err := os.WriteFile(keyPath, key, 0600); err != nil {
		return nil, errors.Wrap(err, "write secret key")
	}
	return &SecretKey{key: key}, nil
}

func NewSecretKeyFromPassphrase(passphrase string) *SecretKey {
	h := sha256.Sum256([]byte(passphrase))
	return &SecretKey{key: h[:]}
}

// Encrypt returns base64 AES-GCM ciphertext with the "enc:" prefix.
func (s *SecretKey) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Wrap(err, "nonce")
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return encPrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. Values without the prefix are returned as-is.
func (s *SecretKey) Decrypt(encrypted string) (string, error) {
	if !IsEncrypted(encrypted) {
		return encrypted, nil
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(encrypted, encPrefix))
	if err != nil {
		return "", errors.Wrap(err, "base64 decode")
	}

	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.Wrap(err, "decryption failed")
	}
	return string(plaintext), nil
}

func (s *SecretKey) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, errors.Wrap(err, "aes cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "gcm")
	}
	return gcm, nil
}

func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, encPrefix)
}

// MaskSecret returns a masked version safe for logs: "****abcd"
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

func homeDir() string {
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return h
	}
	return os.TempDir()
}
