package format

import (
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/partons-hub/partons/internal/model"
)

// 对应规范类型字段的旧版 info 键
const (
	keySetIndex    = "SetIndex"
	keySetDesc     = "SetDesc"
	keyAuthors     = "Authors"
	keyYear        = "Year"
	keyReference   = "Reference"
	keyParticle    = "Particle"
	keyOrderQCD    = "OrderQCD"
	keyErrorType   = "ErrorType"
	keyDataVersion = "DataVersion"
	keyNote        = "Note"
)

// DecodeLegacyInfo 解析扁平的 LHAPDF .info YAML 文档，所有字段错误会汇总后一并返回。
func DecodeLegacyInfo(content []byte) (*model.Info, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("decode legacy info: %w", err)
	}

	d := &infoDecoder{raw: raw}
	info := &model.Info{
		ID:          d.unsigned(keySetIndex),
		Year:        d.unsigned(keyYear),
		Reference:   d.str(keyReference),
		Particle:    d.signed(keyParticle),
		OrderQCD:    d.unsigned(keyOrderQCD),
		ErrorType:   d.str(keyErrorType),
		DataVersion: d.signed(keyDataVersion),
		Note:        d.str(keyNote),
	}
	if s := d.required(keySetDesc); s != nil {
		info.Description = *s
	}
	if s := d.required(keyAuthors); s != nil {
		info.Authors = *s
	}
	if len(d.errs) > 0 {
		return nil, errors.Join(d.errs...)
	}

	for key, value := range raw {
		if d.known(key) {
			continue
		}
		if info.MoreMembers == nil {
			info.MoreMembers = map[string]any{}
		}
		info.MoreMembers[key] = value
	}
	return info, nil
}

type infoDecoder struct {
	raw  map[string]any
	seen []string
	errs []error
}

func (d *infoDecoder) known(key string) bool {
	for _, k := range d.seen {
		if k == key {
			return true
		}
	}
	return false
}

func (d *infoDecoder) lookup(key string) (any, bool) {
	d.seen = append(d.seen, key)
	v, ok := d.raw[key]
	if ok && v == nil {
		return nil, false
	}
	return v, ok
}

func (d *infoDecoder) fail(key, want string) {
	d.errs = append(d.errs, &FieldTypeError{Field: key, Want: want})
}

func (d *infoDecoder) str(key string) *string {
	v, ok := d.lookup(key)
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		d.fail(key, "string")
		return nil
	}
	return &s
}

func (d *infoDecoder) required(key string) *string {
	if _, ok := d.raw[key]; !ok || d.raw[key] == nil {
		d.seen = append(d.seen, key)
		d.errs = append(d.errs, &MissingFieldError{Field: key})
		return nil
	}
	return d.str(key)
}

func (d *infoDecoder) unsigned(key string) *uint64 {
	v, ok := d.lookup(key)
	if !ok {
		return nil
	}
	n, ok := asUint(v)
	if !ok {
		d.fail(key, "unsigned integer")
		return nil
	}
	return &n
}

func (d *infoDecoder) signed(key string) *int64 {
	v, ok := d.lookup(key)
	if !ok {
		return nil
	}
	n, ok := asInt(v)
	if !ok {
		d.fail(key, "integer")
		return nil
	}
	return &n
}

func asUint(v any) (uint64, bool) {
	switch n := v.(type) {
	case int:
		return uint64(n), n >= 0
	case int64:
		return uint64(n), n >= 0
	case uint64:
		return n, true
	case uint:
		return uint64(n), true
	}
	return 0, false
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), n <= math.MaxInt64
	case uint:
		return int64(n), uint64(n) <= math.MaxInt64
	}
	return 0, false
}
