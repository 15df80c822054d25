package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"golang.org/x/crypto/scrypt"
)

// Secrets file format: [salt][nonce][ciphertext+tag], AES-256-GCM with a
// scrypt-derived key.
const (
	saltSize  = 16
	nonceSize = 12
	scryptN   = 32768 // 2^15
	scryptR   = 8
	scryptP   = 1
	keySize   = 32 // AES-256
)

// Secrets holds decrypted secrets in memory. Lookups fall back to environment
// variables, so a deployment without a secrets file still works.
type Secrets struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewSecrets creates an empty in-memory secrets store.
func NewSecrets() *Secrets {
	return &Secrets{values: make(map[string]string)}
}

// Get returns a secret by name: decrypted file contents first, then the
// environment.
func (s *Secrets) Get(name string) (string, error) {
	s.mu.RLock()
	value, exists := s.values[name]
	s.mu.RUnlock()
	if exists && value != "" {
		return value, nil
	}
	if value := os.Getenv(name); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("secret %s not found in secrets file or environment", name)
}

// Set stores a secret in memory.
func (s *Secrets) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
}

// Names returns the stored secret names, never the values.
func (s *Secrets) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	return names
}

// SaveEncrypted encrypts the in-memory secrets to path with 0600 permissions.
func (s *Secrets) SaveEncrypted(path, password string) error {
	s.mu.RLock()
	plaintext, err := json.Marshal(s.values)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal secrets: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return fmt.Errorf("failed to derive encryption key: %w", err)
	}
	defer zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("failed to create GCM: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	fileData := make([]byte, 0, saltSize+nonceSize+len(ciphertext))
	fileData = append(fileData, salt...)
	fileData = append(fileData, nonce...)
	fileData = append(fileData, ciphertext...)

	if err := os.WriteFile(path, fileData, 0600); err != nil {
		return fmt.Errorf("failed to write secrets file: %w", err)
	}
	return nil
}

// LoadEncrypted decrypts the secrets file at path.
func LoadEncrypted(path, password string) (*Secrets, error) {
	fileData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file: %w", err)
	}
	minSize := saltSize + nonceSize + 16 // 16 is the GCM tag size
	if len(fileData) < minSize {
		return nil, fmt.Errorf("secrets file is corrupted or invalid format (too small)")
	}

	salt := fileData[:saltSize]
	nonce := fileData[saltSize : saltSize+nonceSize]
	ciphertext := fileData[saltSize+nonceSize:]

	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive encryption key: %w", err)
	}
	defer zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt secrets (wrong password?): %w", err)
	}

	values := make(map[string]string)
	if err := json.Unmarshal(plaintext, &values); err != nil {
		return nil, fmt.Errorf("failed to parse decrypted secrets: %w", err)
	}
	return &Secrets{values: values}, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
