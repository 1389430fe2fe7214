package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

const envelopeVersion = 1

var (
	ErrMalformed = errors.New("malformed sealed record")
	ErrVersion   = errors.New("unsupported sealed record version")
)

// Box seals journal records with AES-256-GCM. A nil *Box passes data through
// unchanged so callers can treat sealing as optional.
type Box struct {
	gcm cipher.AEAD
}

type envelope struct {
	V     int    `json:"v"`
	Nonce string `json:"nonce"`
	Data  string `json:"data"`
}

// NewBox derives the sealing key from secret with scrypt. An empty secret
// yields a nil Box.
func NewBox(secret string) (*Box, error) {
	if secret == "" {
		return nil, nil
	}
	salt := sha256.Sum256([]byte("quantum-social/journal:" + secret))
	key, err := scrypt.Key([]byte(secret), salt[:], 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Box{gcm: gcm}, nil
}

// Enabled reports whether records are actually sealed.
func (b *Box) Enabled() bool { return b != nil }

// Seal encrypts plaintext and binds it to aad (the record key), so a sealed
// value copied under another key fails to open.
func (b *Box) Seal(plaintext, aad []byte) ([]byte, error) {
	if b == nil {
		return plaintext, nil
	}
	nonce := make([]byte, b.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	env := envelope{
		V:     envelopeVersion,
		Nonce: base64.StdEncoding.EncodeToString(nonce),
		Data:  base64.StdEncoding.EncodeToString(b.gcm.Seal(nil, nonce, plaintext, aad)),
	}
	return json.Marshal(env)
}

// Open reverses Seal.
func (b *Box) Open(sealed, aad []byte) ([]byte, error) {
	if b == nil {
		return sealed, nil
	}
	var env envelope
	if err := json.Unmarshal(sealed, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.V != envelopeVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, env.V)
	}
	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil || len(nonce) != b.gcm.NonceSize() {
		return nil, fmt.Errorf("%w: bad nonce", ErrMalformed)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return b.gcm.Open(nil, nonce, ciphertext, aad)
}
