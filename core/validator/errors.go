package validator

import "errors"

// FieldError 单个字段的校验失败
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ValidationErrors 校验失败集合
type ValidationErrors struct {
	Fields  []FieldError
	message string
}

func (e *ValidationErrors) Error() string {
	return e.message
}

// IsValidationError 判断是否为校验错误
func IsValidationError(err error) bool {
	var ve *ValidationErrors
	return errors.As(err, &ve)
}
