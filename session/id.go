package session

import (
	"crypto/rand"
	"encoding/base64"
)

const idBytes = 32

// NewID 生成 256 位随机会话 ID（base64url，无填充，43 字符）
func NewID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
