package source

import (
	"errors"
	"fmt"

	"github.com/partons-hub/partons/internal/resource"
)

// ErrMemberOutOfRange 表示 member 下标超出 header 声明的数量。
var ErrMemberOutOfRange = errors.New("member index out of range")

// StatusError 表示仓库返回了非 2xx 响应。
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Code)
}

// ParseError 表示内容无法解码。集合级资源的 Member 为 -1。
type ParseError struct {
	Set    string
	Member int64
	Err    error
}

func (e *ParseError) Error() string {
	if e.Member < 0 {
		return fmt.Sprintf("parse %s: %v", e.Set, e.Err)
	}
	return fmt.Sprintf("parse %s member %d: %v", e.Set, e.Member, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// convertError 标记获取流程中的格式转换失败，对外操作据此报告 ParseError。
type convertError struct {
	data resource.Data
	err  error
}

func (e *convertError) Error() string {
	return fmt.Sprintf("convert %s: %v", e.data, e.err)
}

func (e *convertError) Unwrap() error { return e.err }

func asParseError(err error, set string, member int64) error {
	var ce *convertError
	if errors.As(err, &ce) {
		return &ParseError{Set: set, Member: member, Err: ce.err}
	}
	return err
}
