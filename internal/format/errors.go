package format

import "fmt"

// MissingFieldError 表示旧版 info 缺少必填键。
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %s", e.Field)
}

// FieldTypeError 表示旧版 info 键的取值类型不符。
type FieldTypeError struct {
	Field string
	Want  string
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("field %s: expected %s", e.Field, e.Want)
}

// GridError 表示旧版网格分段格式错误（分段从 0 计数，头部为 -1）。
type GridError struct {
	Section int
	Reason  string
}

func (e *GridError) Error() string {
	if e.Section < 0 {
		return fmt.Sprintf("grid header: %s", e.Reason)
	}
	return fmt.Sprintf("grid section %d: %s", e.Section, e.Reason)
}

// UnrecognizedEntryError 表示归档条目无法映射到规范文件名。
type UnrecognizedEntryError struct {
	Entry string
}

func (e *UnrecognizedEntryError) Error() string {
	return fmt.Sprintf("unrecognized archive entry %q", e.Entry)
}
