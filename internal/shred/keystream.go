package shred

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20"
)

// CipherKind потоковый шифр полиморфного алгоритма
type CipherKind string

const (
	CipherChaCha20 CipherKind = "chacha20"
	CipherAESCTR   CipherKind = "aes-ctr"
)

// ParseCipherKind проверяет имя шифра
func ParseCipherKind(name string) (CipherKind, error) {
	switch CipherKind(name) {
	case CipherChaCha20, CipherAESCTR:
		return CipherKind(name), nil
	case "":
		return CipherChaCha20, nil
	default:
		return "", fmt.Errorf("unsupported stream cipher: %s", name)
	}
}

// KeySize полная длина ключа шифра
func (c CipherKind) KeySize() int {
	switch c {
	case CipherAESCTR:
		return 32 // AES-256
	default:
		return chacha20.KeySize
	}
}

// NonceSize длина nonce/IV шифра
func (c CipherKind) NonceSize() int {
	switch c {
	case CipherAESCTR:
		return aes.BlockSize
	default:
		return chacha20.NonceSize
	}
}

// KeyMaterial ключ одного затирания файла. Не сохраняется и не переиспользуется между файлами.
type KeyMaterial struct {
	Cipher CipherKind
	Key    []byte
}

// NewKeyMaterial генерирует случайный ключ полной длины
func NewKeyMaterial(kind CipherKind) (*KeyMaterial, error) {
	key := make([]byte, kind.KeySize())
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("key generation failed: %w", err)
	}
	return &KeyMaterial{Cipher: kind, Key: key}, nil
}

// NewNonce генерирует свежий nonce для очередного прохода
func (km *KeyMaterial) NewNonce() ([]byte, error) {
	nonce := make([]byte, km.Cipher.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce generation failed: %w", err)
	}
	return nonce, nil
}

// Stream keystream для пары (key, nonce). Одинаковые входы дают одинаковый поток.
func (km *KeyMaterial) Stream(nonce []byte) (cipher.Stream, error) {
	return NewKeystream(km.Cipher, km.Key, nonce)
}

// Destroy обнуляет ключ
func (km *KeyMaterial) Destroy() {
	if km == nil {
		return
	}
	clear(km.Key)
	km.Key = nil
}

// NewKeystream создаёт потоковый шифр
func NewKeystream(kind CipherKind, key, nonce []byte) (cipher.Stream, error) {
	switch kind {
	case CipherChaCha20:
		return chacha20.NewUnauthenticatedCipher(key, nonce)
	case CipherAESCTR:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		if len(nonce) != aes.BlockSize {
			return nil, fmt.Errorf("aes-ctr: iv must be %d bytes, got %d", aes.BlockSize, len(nonce))
		}
		return cipher.NewCTR(block, nonce), nil
	default:
		return nil, fmt.Errorf("unsupported stream cipher: %s", kind)
	}
}
