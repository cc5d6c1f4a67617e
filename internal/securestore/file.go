package securestore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/hkdf"
)

// EncryptedFile is a file-backed KeyValue store for server deployments.
// Values are sealed with AES-256-GCM under a key derived from the given
// secret with HKDF, one file per key, readable only by the owning user.
type EncryptedFile struct {
	dir  string
	aead cipher.AEAD
}

// NewEncryptedFile creates an encrypted store rooted at dir, creating the
// directory if needed. secret must be non-empty; the AES key is derived
// from it, so the same secret reopens existing values.
func NewEncryptedFile(dir string, secret []byte) (*EncryptedFile, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("securestore: encryption secret is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("securestore: create %s: %w", dir, err)
	}

	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, secret, nil, []byte("stillwater/securestore/v1"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("securestore: derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("securestore: init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("securestore: init gcm: %w", err)
	}
	return &EncryptedFile{dir: dir, aead: aead}, nil
}

func (e *EncryptedFile) Get(ctx context.Context, key string) (string, error) {
	sealed, err := os.ReadFile(e.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return "", fmt.Errorf("securestore: read %s: %w", key, err)
	}
	if len(sealed) < e.aead.NonceSize() {
		return "", fmt.Errorf("securestore: corrupt value for %s", key)
	}
	nonce, ciphertext := sealed[:e.aead.NonceSize()], sealed[e.aead.NonceSize():]
	plaintext, err := e.aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", fmt.Errorf("securestore: decrypt %s: %w", key, err)
	}
	return string(plaintext), nil
}

func (e *EncryptedFile) Set(ctx context.Context, key, value string) error {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("securestore: nonce: %w", err)
	}
	sealed := e.aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return writeFileAtomic(e.path(key), sealed, 0o600)
}

func (e *EncryptedFile) Delete(ctx context.Context, key string) error {
	if err := os.Remove(e.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("securestore: delete %s: %w", key, err)
	}
	return nil
}

func (e *EncryptedFile) path(key string) string {
	return filepath.Join(e.dir, fileName(key)+".sealed")
}

// PlainFile is an unencrypted file-backed KeyValue store. It stands in for
// the legacy storage that Migrating drains; new writes should go to an
// encrypted store instead.
type PlainFile struct {
	dir string
}

// NewPlainFile creates a plaintext store rooted at dir.
func NewPlainFile(dir string) (*PlainFile, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("securestore: create %s: %w", dir, err)
	}
	return &PlainFile{dir: dir}, nil
}

func (p *PlainFile) Get(ctx context.Context, key string) (string, error) {
	data, err := os.ReadFile(p.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return "", fmt.Errorf("securestore: read %s: %w", key, err)
	}
	return string(data), nil
}

func (p *PlainFile) Set(ctx context.Context, key, value string) error {
	return writeFileAtomic(p.path(key), []byte(value), 0o600)
}

func (p *PlainFile) Delete(ctx context.Context, key string) error {
	if err := os.Remove(p.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("securestore: delete %s: %w", key, err)
	}
	return nil
}

func (p *PlainFile) path(key string) string {
	return filepath.Join(p.dir, fileName(key))
}

// fileName maps an arbitrary key to a safe file name.
func fileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("securestore: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("securestore: chmod: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("securestore: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("securestore: close: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
