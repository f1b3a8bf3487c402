package validator

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validator 结构体校验器
type Validator interface {
	Struct(s any) error
	StructCtx(ctx context.Context, s any) error
}

// Validate 全局校验器实例
var Validate Validator = New()

type validatorImpl struct {
	validate *validator.Validate
	trans    ut.Translator
}

// Option 校验器选项
type Option func(*validator.Validate)

// WithTagName 设置校验标签名（默认 validate）
func WithTagName(name string) Option {
	return func(v *validator.Validate) {
		v.SetTagName(name)
	}
}

// New 创建校验器，错误信息使用英文翻译
func New(opts ...Option) Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	for _, opt := range opts {
		opt(v)
	}

	locale := en.New()
	trans, _ := ut.New(locale, locale).GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	return &validatorImpl{validate: v, trans: trans}
}

func (v *validatorImpl) Struct(s any) error {
	return v.StructCtx(context.Background(), s)
}

func (v *validatorImpl) StructCtx(ctx context.Context, s any) error {
	if s == nil {
		return errors.New("validator: target cannot be nil")
	}
	return v.translate(v.validate.StructCtx(ctx, s))
}

func (v *validatorImpl) translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]FieldError, 0, len(verrs))
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Translate(v.trans)
		fields = append(fields, FieldError{
			Field:   fe.Namespace(),
			Tag:     fe.Tag(),
			Message: msg,
		})
		messages = append(messages, msg)
	}
	return &ValidationErrors{Fields: fields, message: strings.Join(messages, "; ")}
}
