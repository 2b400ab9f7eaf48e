package storage

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidCiphertext is returned by a sealed store for records it cannot open,
// including records sealed with a different key.
var ErrInvalidCiphertext = errors.New("invalid record ciphertext")

// SealedStore encrypts records with AES-256-GCM before handing them to the inner store.
type SealedStore struct {
	inner Store
	aead  cipher.AEAD
}

// NewSealedStore accepts a 32-byte raw key or its standard base64 encoding.
func NewSealedStore(inner Store, rawKey string) (*SealedStore, error) {
	key, err := decodeKey(rawKey)
	if err != nil {
		return nil, fmt.Errorf("decode session key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return &SealedStore{inner: inner, aead: aead}, nil
}

func decodeKey(raw string) ([]byte, error) {
	if len(raw) == 32 {
		return []byte(raw), nil
	}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid key length %d, want 32", len(key))
	}
	return key, nil
}

func (s *SealedStore) Load(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.inner.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(string(sealed))
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	ns := s.aead.NonceSize()
	if len(data) < ns {
		return nil, ErrInvalidCiphertext
	}
	// The record key is bound as additional data.
	plain, err := s.aead.Open(nil, data[:ns], data[ns:], []byte(key))
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	return plain, nil
}

func (s *SealedStore) Save(ctx context.Context, key string, value []byte) error {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("nonce: %w", err)
	}
	buf := s.aead.Seal(nonce, nonce, value, []byte(key))
	return s.inner.Save(ctx, key, []byte(base64.StdEncoding.EncodeToString(buf)))
}

func (s *SealedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *SealedStore) Close() error {
	return s.inner.Close()
}
