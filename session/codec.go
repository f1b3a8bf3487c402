package session

import (
	"encoding/json"
	"fmt"

	"github.com/kochabx/sessionkit/core/validator"
)

// record 存储格式，id 只存在于 key 中
type record struct {
	UserID       string         `json:"userId" validate:"required"`
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	CreatedAt    int64          `json:"createdAt" validate:"gt=0"`
	LastAccessed int64          `json:"lastAccessed" validate:"gtefield=CreatedAt"`
	Data         map[string]any `json:"data"`
}

func encode(s *Session) ([]byte, error) {
	data := s.Data
	if data == nil {
		data = map[string]any{}
	}
	r := record{
		UserID:       s.UserID,
		Email:        s.Email,
		Role:         s.Role,
		CreatedAt:    s.CreatedAt,
		LastAccessed: s.LastAccessed,
		Data:         data,
	}
	// 写入的记录必须能被 decode 读回
	if err := validator.Validate.Struct(&r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return json.Marshal(r)
}

func decode(id string, raw []byte) (*Session, error) {
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := validator.Validate.Struct(&r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	return &Session{
		ID:           id,
		UserID:       r.UserID,
		Email:        r.Email,
		Role:         r.Role,
		CreatedAt:    r.CreatedAt,
		LastAccessed: r.LastAccessed,
		Data:         r.Data,
	}, nil
}
