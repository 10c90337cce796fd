// Package bizerr 定义了业务错误的分类。
// 所有领域错误都应该包装其中一种类别，接口层通过 errors.Is 决定返回码。
package bizerr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation 表示请求或活动配置不合法，操作被拒绝且不留下任何持久化状态。
	ErrValidation = errors.New("validation failed")
	// ErrNotFound 表示引用的活动、优惠券、商品或订单不存在。
	ErrNotFound = errors.New("not found")
	// ErrSoftRejection 表示优惠不适用于当前购物车，订单本身仍然可以被定价。
	ErrSoftRejection = errors.New("soft rejection")
)

// Validation 创建一个校验错误。
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound 创建一个资源不存在错误。
func NotFound(what string, id any) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, what, id)
}

// Rejection 是软拒绝的具体原因。
type Rejection struct {
	Code    string
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

// Is 让 errors.Is(err, ErrSoftRejection) 对所有 Rejection 成立。
func (r *Rejection) Is(target error) bool {
	return target == ErrSoftRejection
}

// Reject 创建一个软拒绝。
func Reject(code, message string) *Rejection {
	return &Rejection{Code: code, Message: message}
}

// AsRejection 从错误链中取出软拒绝。
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// Kind 返回错误所属的类别名称，用于指标标签。
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrSoftRejection):
		return "soft_rejection"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

// HTTPStatus 把错误类别映射为 HTTP 状态码。
func HTTPStatus(err error) int {
	switch Kind(err) {
	case "none":
		return http.StatusOK
	case "soft_rejection":
		return http.StatusConflict
	case "validation":
		return http.StatusUnprocessableEntity
	case "not_found":
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
