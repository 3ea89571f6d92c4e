package util

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound               = errors.New("用户不存在")
	ErrEmailRegistered            = errors.New("该邮箱已被注册")
	ErrPermissionDenied           = errors.New("permission denied")
	ErrCourseAccessDenied         = errors.New("course access denied")
	ErrPackageNotFound            = errors.New("scorm package not found")
	ErrPackageNotReady            = errors.New("scorm package is not ready to launch")
	ErrAttemptNotFound            = errors.New("attempt not found")
	ErrMultipleAttemptsNotAllowed = errors.New("package already completed and multiple attempts are not allowed")
)

// ValidationError 上传校验失败，字段级错误，可直接回显给用户
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidationError 判断是否为用户可纠正的校验错误
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
