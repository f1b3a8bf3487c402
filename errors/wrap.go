package errors

import (
	goerrors "errors"
)

// Is 转发标准库 errors.Is，*Error 之间按 code 与 message 比较
func Is(err, target error) bool {
	return goerrors.Is(err, target)
}

// As 转发标准库 errors.As
func As(err error, target any) bool {
	return goerrors.As(err, target)
}
