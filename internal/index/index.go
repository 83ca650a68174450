// Package index 解析仓库的纯文本数据集索引，并以锚定正则表达式解析数据集名称。
package index

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoMatch 由 NotFoundError 包装。
var ErrNoMatch = errors.New("no dataset matches")

// Header 标识仓库中的一个数据集。
type Header struct {
	ID      uint32 `json:"id"`
	Name    string `json:"name"`
	Members uint32 `json:"members"`
}

// Identifier 以 "name:id" 形式渲染 header。
func (h Header) Identifier() string {
	return fmt.Sprintf("%s:%d", h.Name, h.ID)
}

// Index 是仓库发布的有序 header 列表。
type Index struct {
	headers []Header
}

// ParseError 表示索引中格式错误的行（行号从 1 计数）。
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("index line %d: %s", e.Line, e.Reason)
}

// NotFoundError 表示模式没有匹配任何 header。
type NotFoundError struct {
	Pattern string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %q", ErrNoMatch, e.Pattern)
}

func (e *NotFoundError) Unwrap() error { return ErrNoMatch }

// AmbiguousError 表示模式匹配了多个 header。
type AmbiguousError struct {
	Pattern string
	Count   int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("pattern %q matches %d datasets", e.Pattern, e.Count)
}

// Parse 每个非空行读取一条 "id name members" 记录，任一行出错即整体失败。
func Parse(text string) (*Index, error) {
	var headers []Header
	for n, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, &ParseError{Line: n + 1, Reason: fmt.Sprintf("expected 3 fields, found %d", len(fields))}
		}
		id, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return nil, &ParseError{Line: n + 1, Reason: fmt.Sprintf("invalid id %q", fields[0])}
		}
		members, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return nil, &ParseError{Line: n + 1, Reason: fmt.Sprintf("invalid member count %q", fields[2])}
		}
		headers = append(headers, Header{ID: uint32(id), Name: fields[1], Members: uint32(members)})
	}
	return &Index{headers: headers}, nil
}

// Get 返回全名匹配 pattern 的唯一 header。
func (idx *Index) Get(pattern string) (Header, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return Header{}, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	var (
		found Header
		count int
	)
	for _, h := range idx.headers {
		if re.MatchString(h.Name) {
			if count == 0 {
				found = h
			}
			count++
		}
	}
	switch count {
	case 0:
		return Header{}, &NotFoundError{Pattern: pattern}
	case 1:
		return found, nil
	default:
		return Header{}, &AmbiguousError{Pattern: pattern, Count: count}
	}
}

// Headers 按索引顺序返回全部 header 的副本。
func (idx *Index) Headers() []Header {
	out := make([]Header, len(idx.headers))
	copy(out, idx.headers)
	return out
}

func (idx *Index) Len() int { return len(idx.headers) }

func (idx *Index) At(i int) Header { return idx.headers[i] }
