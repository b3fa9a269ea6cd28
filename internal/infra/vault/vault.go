package vault

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/scrypt"

	"github.com/yanqian/daily-briefing/pkg/util"
)

const (
	envelopeVersion = byte(1)
	saltSize        = 16
	keySize         = 32
	minKeyMaterial  = 16

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// Credentials are the SMTP settings kept sealed on disk.
type Credentials struct {
	Server string     `json:"server"`
	Port   int        `json:"port"`
	From   string     `json:"from"`
	Pass   string     `json:"pass"`
	To     Recipients `json:"to"`
}

// Validate reports the first missing field.
func (c Credentials) Validate() error {
	switch {
	case strings.TrimSpace(c.Server) == "":
		return errors.New("credentials: server is required")
	case c.Port <= 0:
		return errors.New("credentials: port must be positive")
	case strings.TrimSpace(c.From) == "":
		return errors.New("credentials: from is required")
	case len(c.To) == 0:
		return errors.New("credentials: to is required")
	}
	return nil
}

// Recipients accepts either a single address or a list in JSON.
type Recipients []string

func (r *Recipients) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*r = splitAddresses(single)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("recipients must be a string or a list of strings: %w", err)
	}
	out := make(Recipients, 0, len(list))
	for _, addr := range list {
		out = append(out, splitAddresses(addr)...)
	}
	*r = out
	return nil
}

func splitAddresses(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Seal encrypts plaintext with AES-256-GCM under a key derived from keyMaterial.
// Every envelope carries its own salt and nonce.
func Seal(keyMaterial, plaintext []byte) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	gcm, err := newGCM(keyMaterial, salt)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	header := append([]byte{envelopeVersion}, salt...)
	payload := append(append([]byte(nil), header...), nonce...)
	payload = gcm.Seal(payload, nonce, plaintext, header)
	return base64.RawURLEncoding.EncodeToString(payload), nil
}

// Open reverses Seal.
func Open(keyMaterial []byte, envelope string) ([]byte, error) {
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(envelope))
	if err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if len(payload) < 1+saltSize || payload[0] != envelopeVersion {
		return nil, errors.New("invalid envelope")
	}
	header, rest := payload[:1+saltSize], payload[1+saltSize:]
	gcm, err := newGCM(keyMaterial, header[1:])
	if err != nil {
		return nil, err
	}
	if len(rest) < gcm.NonceSize() {
		return nil, errors.New("invalid envelope")
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, header)
	if err != nil {
		return nil, fmt.Errorf("open envelope: %w", err)
	}
	return plaintext, nil
}

func newGCM(keyMaterial, salt []byte) (cipher.AEAD, error) {
	if len(keyMaterial) < minKeyMaterial {
		return nil, fmt.Errorf("key material must be at least %d bytes", minKeyMaterial)
	}
	key, err := scrypt.Key(keyMaterial, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// LoadKey reads key material from path, ignoring surrounding whitespace.
func LoadKey(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	key := []byte(strings.TrimSpace(string(raw)))
	if len(key) < minKeyMaterial {
		return nil, fmt.Errorf("key file %s is too short", path)
	}
	return key, nil
}

// EnsureKey loads the key at path, creating a random one when the file is absent.
func EnsureKey(path string) ([]byte, bool, error) {
	if _, err := os.Stat(path); err == nil {
		key, err := LoadKey(path)
		return key, false, err
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, false, fmt.Errorf("stat key file: %w", err)
	}
	buf := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, false, fmt.Errorf("generate key: %w", err)
	}
	key := []byte(base64.RawURLEncoding.EncodeToString(buf))
	if err := util.WriteFileAtomic(path, append(key, '\n'), 0o600); err != nil {
		return nil, false, fmt.Errorf("write key file: %w", err)
	}
	return key, true, nil
}

// SealCredentials validates and seals plaintext credentials JSON.
func SealCredentials(keyMaterial, plaintext []byte) (string, error) {
	var creds Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return "", fmt.Errorf("parse credentials: %w", err)
	}
	if err := creds.Validate(); err != nil {
		return "", err
	}
	normalized, err := json.Marshal(creds)
	if err != nil {
		return "", fmt.Errorf("encode credentials: %w", err)
	}
	return Seal(keyMaterial, normalized)
}

// Vault opens the sealed credentials file on demand, so secrets stay off the heap between sends.
type Vault struct {
	credentialsPath string
	keyPath         string
}

// New builds a vault over a sealed file and its key file.
func New(credentialsPath, keyPath string) *Vault {
	return &Vault{credentialsPath: credentialsPath, keyPath: keyPath}
}

// Credentials decrypts and parses the sealed credentials.
func (v *Vault) Credentials(_ context.Context) (Credentials, error) {
	key, err := LoadKey(v.keyPath)
	if err != nil {
		return Credentials{}, err
	}
	envelope, err := os.ReadFile(v.credentialsPath)
	if err != nil {
		return Credentials{}, fmt.Errorf("read credentials: %w", err)
	}
	plaintext, err := Open(key, string(envelope))
	if err != nil {
		return Credentials{}, err
	}
	var creds Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parse credentials: %w", err)
	}
	if err := creds.Validate(); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// WriteSealed seals plaintext credentials into path.
func WriteSealed(path string, keyMaterial, plaintext []byte) error {
	envelope, err := SealCredentials(keyMaterial, plaintext)
	if err != nil {
		return err
	}
	return util.WriteFileAtomic(path, []byte(envelope+"\n"), 0o600)
}
