// Package crypto provides the password-based encryption used for backup
// snapshots. The passphrase is app-known and the KDF parameters are
// fixed, so this is obfuscation against casual remote-store access, not
// secret-holder security.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	// File format magic bytes
	MagicBytes = "CNRY"

	// Version of the encryption format
	FormatVersion = 1

	// Argon2id parameters, fixed so any installation can decrypt any
	// snapshot with the shared passphrase.
	Argon2Time    = 3
	Argon2Memory  = 64 * 1024 // 64 MB
	Argon2Threads = 4
	Argon2KeyLen  = 32 // AES-256

	// KeySalt is the fixed KDF salt shared by all installations.
	KeySalt = "canary-backup-v1"

	NonceSize = 12 // GCM standard nonce size

	// Header size: magic(4) + version(4) + nonce(12) = 20 bytes
	HeaderSize = 4 + 4 + NonceSize
)

var (
	ErrInvalidMagic   = errors.New("invalid format: not an encrypted canary snapshot")
	ErrInvalidVersion = errors.New("unsupported encryption format version")
	ErrDecryptFailed  = errors.New("decryption failed: wrong passphrase or corrupted data")
)

// DeriveKey derives the AES-256 key from a passphrase using Argon2id
// with the fixed parameters above.
func DeriveKey(passphrase string) []byte {
	return argon2.IDKey(
		[]byte(passphrase),
		[]byte(KeySalt),
		Argon2Time,
		Argon2Memory,
		Argon2Threads,
		Argon2KeyLen,
	)
}

// Encrypt encrypts data using AES-256-GCM under the passphrase-derived
// key. Returns header (magic + version + nonce) plus ciphertext.
func Encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	key := DeriveKey(passphrase)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	output := make([]byte, HeaderSize+len(ciphertext))
	copy(output[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(output[4:8], FormatVersion)
	copy(output[8:HeaderSize], nonce)
	copy(output[HeaderSize:], ciphertext)

	return output, nil
}

// Decrypt decrypts data that was encrypted with Encrypt. Corrupt or
// incompatible payloads fail with a recoverable error, never a panic.
func Decrypt(data []byte, passphrase string) ([]byte, error) {
	if len(data) < HeaderSize {
		return nil, ErrInvalidMagic
	}

	if string(data[0:4]) != MagicBytes {
		return nil, ErrInvalidMagic
	}

	version := binary.LittleEndian.Uint32(data[4:8])
	if version != FormatVersion {
		return nil, ErrInvalidVersion
	}

	nonce := data[8:HeaderSize]
	ciphertext := data[HeaderSize:]

	key := DeriveKey(passphrase)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}

	return plaintext, nil
}

// IsEncrypted checks if data appears to be an encrypted canary snapshot.
func IsEncrypted(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	return string(data[0:4]) == MagicBytes
}
