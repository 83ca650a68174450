package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(testConfigPath(t, "valid.toml"))
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if !filepath.IsAbs(cfg.Global.DataPath) {
		t.Fatalf("DataPath 应被转换为绝对路径: %s", cfg.Global.DataPath)
	}
	if cfg.Global.ListenPort != 5000 {
		t.Fatalf("ListenPort 应当使用默认值, got %d", cfg.Global.ListenPort)
	}
	if cfg.Global.InitialBackoff.DurationValue() != 500*time.Millisecond {
		t.Fatalf("InitialBackoff 解析错误: %v", cfg.Global.InitialBackoff.DurationValue())
	}
	if cfg.Global.UpstreamTimeout.DurationValue() != 30*time.Second {
		t.Fatalf("UpstreamTimeout 应该自动填充默认值")
	}
	if cfg.Global.MaxRetries != 2 || cfg.Global.LogLevel != "debug" {
		t.Fatalf("全局字段解析错误: %+v", cfg.Global)
	}
	if len(cfg.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(cfg.Sources))
	}

	lhapdf, ok := cfg.Source("lhapdf")
	if !ok {
		t.Fatalf("lhapdf source missing")
	}
	if lhapdf.Format != "legacy" {
		t.Fatalf("lhapdf 别名应规范化为 legacy, got %s", lhapdf.Format)
	}
	if lhapdf.Patterns.Info != "{name}/{name}.info" {
		t.Fatalf("patterns 未解析: %+v", lhapdf.Patterns)
	}

	mirror, _ := cfg.Source("mirror")
	if mirror.Format != "native" {
		t.Fatalf("format 默认应为 native, got %s", mirror.Format)
	}
	if mirror.Patterns.Info != defaultInfoPattern || mirror.Patterns.Grids != defaultGridsPattern {
		t.Fatalf("patterns 默认值缺失: %+v", mirror.Patterns)
	}
	if cfg.Path != testConfigPath(t, "valid.toml") {
		t.Fatalf("Path 应记录配置文件, got %s", cfg.Path)
	}
}

func TestLoadDefaultsDataPathToXDG(t *testing.T) {
	path := writeTempConfig(t, `
[[sources]]
name = "lhapdf"
url = "https://example.com/"
index = "https://example.com/pdfsets.index"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Global.DataPath != DefaultDataPath() {
		t.Fatalf("expected %s, got %s", DefaultDataPath(), cfg.Global.DataPath)
	}
}

func TestValidateEnforcesListenPortRange(t *testing.T) {
	cfg := validConfig()
	cfg.Global.ListenPort = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatalf("ListenPort 超出范围应当报错")
	}
}

func TestValidateRequiresSources(t *testing.T) {
	cfg := validConfig()
	cfg.Sources = nil
	if err := cfg.Validate(); err == nil {
		t.Fatalf("没有数据源时应报错")
	}
}

func TestSourceValidation(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(*SourceConfig)
		shouldErr bool
	}{
		{"ok", func(*SourceConfig) {}, false},
		{"legacy format", func(s *SourceConfig) { s.Format = "legacy" }, false},
		{"unknown format", func(s *SourceConfig) { s.Format = "hdf5" }, true},
		{"ftp url", func(s *SourceConfig) { s.URL = "ftp://example.com/" }, true},
		{"missing index", func(s *SourceConfig) { s.Index = "" }, true},
		{"path in name", func(s *SourceConfig) { s.Name = "a/b" }, true},
		{"info without name", func(s *SourceConfig) { s.Patterns.Info = "info.yaml" }, true},
		{"empty grids", func(s *SourceConfig) { s.Patterns.Grids = "" }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg.Sources[0])
			err := cfg.Validate()
			if tc.shouldErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.shouldErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateRejectsDuplicateNames(t *testing.T) {
	cfg := validConfig()
	cfg.Sources = append(cfg.Sources, cfg.Sources[0])
	err := cfg.Validate()
	fieldErr, ok := err.(FieldError)
	if !ok || fieldErr.Field != "sources[lhapdf].name" {
		t.Fatalf("expected duplicate name FieldError, got %v", err)
	}
}

func TestSourceNames(t *testing.T) {
	cfg := validConfig()
	cfg.Sources = append(cfg.Sources, SourceConfig{Name: "other"})
	names := SourceNames(cfg.Sources)
	if len(names) != 2 || names[0] != "lhapdf" || names[1] != "other" {
		t.Fatalf("unexpected names %v", names)
	}
}

func validConfig() *Config {
	return &Config{
		Global: GlobalConfig{
			ListenPort:      5000,
			DataPath:        "./data",
			MaxRetries:      1,
			InitialBackoff:  Duration(time.Second),
			UpstreamTimeout: Duration(time.Second),
			MemberCacheSize: 4,
		},
		Sources: []SourceConfig{
			{
				Name:   "lhapdf",
				URL:    "https://lhapdfsets.web.cern.ch/current/",
				Index:  "https://lhapdfsets.web.cern.ch/current/pdfsets.index",
				Format: "native",
				Patterns: Patterns{
					Info:  defaultInfoPattern,
					Grids: defaultGridsPattern,
				},
			},
		},
	}
}
