package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Info 是以 info.yaml 写出的规范集合元数据。
type Info struct {
	ID          *uint64        `yaml:"id,omitempty" json:"id,omitempty"`
	Description string         `yaml:"description" json:"description"`
	Authors     string         `yaml:"authors" json:"authors"`
	Year        *uint64        `yaml:"year,omitempty" json:"year,omitempty"`
	Reference   *string        `yaml:"reference,omitempty" json:"reference,omitempty"`
	Particle    *int64         `yaml:"particle,omitempty" json:"particle,omitempty"`
	OrderQCD    *uint64        `yaml:"order_qcd,omitempty" json:"orderQCD,omitempty"`
	ErrorType   *string        `yaml:"error_type,omitempty" json:"errorType,omitempty"`
	DataVersion *int64         `yaml:"data_version,omitempty" json:"dataVersion,omitempty"`
	Note        *string        `yaml:"note,omitempty" json:"note,omitempty"`
	MoreMembers map[string]any `yaml:"more_members,omitempty" json:"moreMembers,omitempty"`
}

// LoadInfo 解码规范的 info.yaml 字节。
func LoadInfo(data []byte) (*Info, error) {
	var info Info
	if err := yaml.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decode info: %w", err)
	}
	return &info, nil
}

// YAML 以规范形式编码 info。
func (i *Info) YAML() ([]byte, error) {
	out, err := yaml.Marshal(i)
	if err != nil {
		return nil, fmt.Errorf("encode info: %w", err)
	}
	return out, nil
}

// Lookup 按键返回元数据值，未映射到类型字段的键从 MoreMembers 查找。
func (i *Info) Lookup(key string) (any, bool) {
	switch key {
	case "SetIndex", "id":
		return deref(i.ID)
	case "SetDesc", "description":
		return i.Description, true
	case "Authors", "authors":
		return i.Authors, true
	case "Year", "year":
		return deref(i.Year)
	case "Reference", "reference":
		return deref(i.Reference)
	case "Particle", "particle":
		return deref(i.Particle)
	case "OrderQCD", "order_qcd":
		return deref(i.OrderQCD)
	case "ErrorType", "error_type":
		return deref(i.ErrorType)
	case "DataVersion", "data_version":
		return deref(i.DataVersion)
	case "Note", "note":
		return deref(i.Note)
	}
	v, ok := i.MoreMembers[key]
	return v, ok
}

func deref[T any](p *T) (any, bool) {
	if p == nil {
		return nil, false
	}
	return *p, true
}
