package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrSessionExpired 回调指向的会话已不存在或已过期
	ErrSessionExpired = errors.New("session expired")
	// ErrRateLimited 超出每日配额或全局速率
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrInvariant 存储层违反唯一性等内部假设
	ErrInvariant = errors.New("internal invariant violated")
)

// StorageError wraps a connectivity or query failure of the review store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError, returning nil for a nil err.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// ValidationError 输入缺失或格式错误
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// HTTPStatus maps the taxonomy onto response codes.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrSessionExpired):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// Code is the stable machine-readable code for err.
func Code(err error) string {
	switch {
	case IsValidation(err):
		return "validation_error"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrInvariant):
		return "invariant_violation"
	case IsStorage(err):
		return "storage_error"
	default:
		return "internal_error"
	}
}

// Body is the JSON error envelope returned by the HTTP API.
type Body struct {
	Error Detail `json:"error"`
}

type Detail struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Response 生成错误响应体；内部错误不向外暴露细节
func Response(err error) Body {
	msg := err.Error()
	if HTTPStatus(err) == http.StatusInternalServerError {
		msg = "internal server error"
	}
	return Body{Error: Detail{Message: msg, Code: Code(err)}}
}
