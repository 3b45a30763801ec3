package builtin

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"hash"
	"io"

	"github.com/golang-jwt/jwt/v5"
)

func newHash(algo string) hash.Hash {
	switch algo {
	case "md5":
		return md5.New()
	case "sha1":
		return sha1.New()
	case "sha512":
		return sha512.New()
	default:
		return sha256.New()
	}
}

// Digest implements digest(algo, data), grounded on crypto/*; no example
// repo in the pack pulls in a non-stdlib hashing library, so this stays on
// the standard library.
func Digest(algo, data string) string {
	h := newHash(algo)
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// Hmac implements hmac(algo, key, data).
func Hmac(algo, key, data string) string {
	mac := hmac.New(func() hash.Hash { return newHash(algo) }, []byte(key))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// Encrypt/Decrypt implement AES-256-GCM with the key SHA-256-stretched to
// 32 bytes, nonce prepended to the ciphertext and base64-encoded for safe
// embedding in a single AWK string field.
func Encrypt(key, plaintext string) (string, error) {
	block, err := aes.NewCipher(stretchKey(key))
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	ct := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ct), nil
}

func Decrypt(key, ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(stretchKey(key))
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(raw) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	nonce, ct := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	pt, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}

func stretchKey(key string) []byte {
	sum := sha256.Sum256([]byte(key))
	return sum[:]
}

// Jwt mints an HS256 token from a flat string-valued claim set, grounded
// on golang-jwt/jwt.
func Jwt(claims map[string]string, secret string) (string, error) {
	mc := jwt.MapClaims{}
	for k, v := range claims {
		mc[k] = v
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, mc)
	return tok.SignedString([]byte(secret))
}

// Dejwt validates and decodes an HS256 token back into a flat claim map.
func Dejwt(token, secret string) (map[string]string, bool) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, false
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(claims))
	for k, v := range claims {
		out[k] = toStr(v)
	}
	return out, true
}

func toStr(v any) string {
	switch t := v.(type) {
	case string:
		return t
	default:
		return ""
	}
}

// MkPassword generates a random password of n printable characters from a
// fixed alphabet using crypto/rand.
func MkPassword(n int) string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789!@#$%"
	if n <= 0 {
		n = 12
	}
	buf := make([]byte, n)
	rnd := make([]byte, n)
	io.ReadFull(rand.Reader, rnd)
	for i := range buf {
		buf[i] = alphabet[int(rnd[i])%len(alphabet)]
	}
	return string(buf)
}
