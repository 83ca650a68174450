// Package resource 定义可缓存工件的寻址方式：数据种类（index/info/set/member）
// 与生命周期状态（original/regular）的组合，并给出固定的相对路径模板。
// 本包不做任何 I/O，cache 与 source 依赖它来计算落盘位置。
package resource

import (
	"fmt"
	"path"
	"strings"
)

const (
	IndexName         = "index.csv"
	InfoName          = "info.yaml"
	SetName           = "set.tar.gz"
	MemberPlaceholder = "{member}"
	MemberPattern     = "{member}.member.lz4"
)

// Kind 枚举可缓存的数据种类。
type Kind int

const (
	KindIndex Kind = iota
	KindInfo
	KindSet
	KindMember
)

func (k Kind) String() string {
	switch k {
	case KindIndex:
		return "Index"
	case KindInfo:
		return "Info"
	case KindSet:
		return "Set"
	case KindMember:
		return "Member"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Data 标识一个逻辑数据：Index 不带集合名，Info/Set 带集合名，Member 额外带成员序号。
type Data struct {
	Kind   Kind
	Set    string
	Member uint32
}

// Index 返回注册表索引数据。
func Index() Data { return Data{Kind: KindIndex} }

// Info 返回指定集合的元数据。
func Info(set string) Data { return Data{Kind: KindInfo, Set: set} }

// Set 返回指定集合的归档。
func Set(set string) Data { return Data{Kind: KindSet, Set: set} }

// Member 返回指定集合的第 n 个成员。
func Member(set string, n uint32) Data { return Data{Kind: KindMember, Set: set, Member: n} }

func (d Data) String() string {
	switch d.Kind {
	case KindIndex:
		return "Index"
	case KindMember:
		return fmt.Sprintf("Member: %s-%d", d.Set, d.Member)
	default:
		return fmt.Sprintf("%s: %s", d.Kind, d.Set)
	}
}

// dirFile 拆分出集合目录与叶子文件名。
func (d Data) dirFile() (string, string) {
	switch d.Kind {
	case KindInfo:
		return d.Set, InfoName
	case KindSet:
		return d.Set, SetName
	case KindMember:
		return d.Set, MemberFileName(d.Member)
	default:
		return "", IndexName
	}
}

// MemberFileName 返回成员文件名，序号补零到 6 位。
func MemberFileName(n uint32) string {
	return strings.Replace(MemberPattern, MemberPlaceholder, fmt.Sprintf("%06d", n), 1)
}

// State 描述同一逻辑数据的两种形态。
type State int

const (
	// Regular 是转换后的规范形态。
	Regular State = iota
	// Original 是下载得到的原始字节。
	Original
)

// Marker 返回 Original 形态的文件名前缀标记，Regular 为空。
func (s State) Marker() string {
	if s == Original {
		return "original"
	}
	return ""
}

func (s State) String() string {
	if s == Original {
		return "original"
	}
	return "regular"
}

// Resource 是缓存键：数据 + 状态。两个 Resource 当且仅当字段全部相等时相等。
type Resource struct {
	Data  Data
	State State
}

// New 构造 Resource。
func New(data Data, state State) Resource {
	return Resource{Data: data, State: state}
}

// WithState 返回同一数据在另一状态下的 Resource。
func (r Resource) WithState(state State) Resource {
	r.State = state
	return r
}

// Path 返回 Resource 当前状态对应的相对路径（以 / 分隔）。
func (r Resource) Path() string {
	if r.State == Original {
		return r.RawPath()
	}
	dir, file := r.Data.dirFile()
	return path.Join(dir, file)
}

// RawPath 返回 Original 形态的相对路径：叶子文件名加上 "original." 前缀。
func (r Resource) RawPath() string {
	dir, file := r.Data.dirFile()
	return path.Join(dir, OriginalName(file))
}

// OriginalName 为叶子文件名加上 Original 标记前缀。
func OriginalName(file string) string {
	return Original.Marker() + "." + file
}

func (r Resource) String() string {
	return fmt.Sprintf("%s %s", r.State, r.Data)
}
