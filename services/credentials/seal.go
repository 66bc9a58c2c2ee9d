package credentials

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	SecretSize   = 32
	sealedPrefix = "sealed:"
)

var ErrUnsealFailed = errors.New("failed to unseal saved password")

// Sealer encrypts the saved password at rest with a key derived from a
// local secret.
type Sealer struct {
	aead cipher.AEAD
}

func NewSealer(secret []byte) (Sealer, error) {
	if len(secret) < SecretSize {
		return Sealer{}, fmt.Errorf("secret must be at least %d bytes, got %d", SecretSize, len(secret))
	}
	kdf := hkdf.New(sha256.New, secret, nil, []byte("kioskassist credentials"))
	key := make([]byte, chacha20poly1305.KeySize)
	_, err := io.ReadFull(kdf, key)
	if err != nil {
		return Sealer{}, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return Sealer{}, err
	}
	return Sealer{aead: aead}, nil
}

// LoadOrCreateSecret reads the secret at `path`, generating and writing a
// new one (readable only by the current user) if there is none.
func LoadOrCreateSecret(path string) ([]byte, error) {
	secret, err := os.ReadFile(path)
	if err == nil {
		return secret, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	secret = make([]byte, SecretSize)
	_, err = io.ReadFull(rand.Reader, secret)
	if err != nil {
		return nil, err
	}
	err = os.MkdirAll(filepath.Dir(path), 0700)
	if err != nil {
		return nil, err
	}
	err = os.WriteFile(path, secret, 0600)
	if err != nil {
		return nil, err
	}
	return secret, nil
}

func (s Sealer) Seal(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	_, err := io.ReadFull(rand.Reader, nonce)
	if err != nil {
		return "", err
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

func (s Sealer) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnsealFailed, err)
	}
	if len(raw) < s.aead.NonceSize() {
		return "", fmt.Errorf("%w: too short", ErrUnsealFailed)
	}
	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnsealFailed, err)
	}
	return string(plaintext), nil
}

func isSealed(password string) bool {
	return strings.HasPrefix(password, sealedPrefix)
}
