package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 网关错误分类
type Kind int

const (
	KindUnknown Kind = iota
	KindValidationFailed
	KindNotFound
	KindUnauthorized
	KindNetworkFailure
	KindServerFailure
)

// String 返回分类名称（用于日志）
func (k Kind) String() string {
	switch k {
	case KindValidationFailed:
		return "validation_failed"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindNetworkFailure:
		return "network_failure"
	case KindServerFailure:
		return "server_failure"
	}
	return "unknown"
}

// Error 分类后的网关错误
// 分类原样向上传递，本层不做重试
type Error struct {
	Kind       Kind
	Message    string
	HTTPStatus int
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway: %s", e.Kind)
	}
	return fmt.Sprintf("gateway: %s: %s", e.Kind, e.Message)
}

// KindOf 提取错误的网关分类，非网关错误返回 KindUnknown
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnknown
}

// classify 按 HTTP 状态码分类远端失败
func classify(status int) Kind {
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindValidationFailed
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindServerFailure
	}
	return KindServerFailure
}
