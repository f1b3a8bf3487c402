package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kochabx/sessionkit/core/tag"
	"github.com/kochabx/sessionkit/core/validator"
)

// Config JWT 配置，仅支持 HMAC 签名
type Config struct {
	Secret        string        `json:"secret" mapstructure:"secret" validate:"required,min=16"`
	SigningMethod string        `json:"signing_method" mapstructure:"signing_method" default:"HS256" validate:"oneof=HS256 HS384 HS512"`
	TTL           time.Duration `json:"ttl" mapstructure:"ttl" default:"24h" validate:"gt=0"`
	Leeway        time.Duration `json:"leeway" mapstructure:"leeway" default:"5s"`

	Issuer   string   `json:"issuer" mapstructure:"issuer"`
	Audience []string `json:"audience" mapstructure:"audience"`

	// Cookie 非空时，请求头中没有 Bearer token 则从该 cookie 读取
	Cookie string `json:"cookie" mapstructure:"cookie"`
}

// ApplyDefaults 应用默认值
func (c *Config) ApplyDefaults() error {
	return tag.ApplyDefaults(c)
}

// Validate 校验配置
func (c *Config) Validate() error {
	return validator.Validate.Struct(c)
}

func (c *Config) signingMethod() jwt.SigningMethod {
	switch c.SigningMethod {
	case "HS384":
		return jwt.SigningMethodHS384
	case "HS512":
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}
