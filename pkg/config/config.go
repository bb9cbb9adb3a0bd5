package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/decker502/floatrand/pkg/curve"
	"gopkg.in/yaml.v3"
)

// FieldRange 可调字段的默认值和合法范围
type FieldRange struct {
	Default float64 `yaml:"default" toml:"default"`
	Min     float64 `yaml:"min" toml:"min"`
	Max     float64 `yaml:"max" toml:"max"`
}

// BoundsConfig 上下界配置
//
// Lower/Upper 是初始值，Min/Max 是界面范围（目标解析后会被目标的范围覆盖）
type BoundsConfig struct {
	Lower float64 `yaml:"lower" toml:"lower"`
	Upper float64 `yaml:"upper" toml:"upper"`
	Min   float64 `yaml:"min" toml:"min"`
	Max   float64 `yaml:"max" toml:"max"`
}

// ShapeConfig 默认曲线形状
type ShapeConfig struct {
	Kind      string  `yaml:"kind" toml:"kind"`
	Midpoint  float64 `yaml:"midpoint" toml:"midpoint"`
	Curvature float64 `yaml:"curvature" toml:"curvature"`
}

// WindowConfig 桌面调试窗口配置
type WindowConfig struct {
	Width   int    `yaml:"width" toml:"width"`
	Height  int    `yaml:"height" toml:"height"`
	Title   string `yaml:"title" toml:"title"`
	History int    `yaml:"history" toml:"history"` // 曲线图保留的采样数
}

// Config 应用配置
//
// 配置文件位置: data/floatrand.yaml（也支持 .toml）
type Config struct {
	// TickRate 每秒 tick 次数
	TickRate int `yaml:"tickRate" toml:"tick_rate"`

	// PollInterval 未解析引用的重试间隔（秒）
	PollInterval float64 `yaml:"pollInterval" toml:"poll_interval"`

	// Seed 随机数种子，0 表示按时间生成
	Seed uint64 `yaml:"seed" toml:"seed"`

	Period           FieldRange   `yaml:"period" toml:"period"`
	Quickness        FieldRange   `yaml:"quickness" toml:"quickness"`
	Bounds           BoundsConfig `yaml:"bounds" toml:"bounds"`
	EnableRandomness bool         `yaml:"enableRandomness" toml:"enable_randomness"`
	Shape            ShapeConfig  `yaml:"shape" toml:"shape"`

	// DefaultContainer 没有存档时默认选择的容器（空表示不选择）
	DefaultContainer string `yaml:"defaultContainer" toml:"default_container"`

	// Group 容器ID的分组前缀（"分组/容器"），存档随分组一起保存，
	// 在另一个分组中恢复时改写容器引用；空表示不分组
	Group string `yaml:"group" toml:"group"`

	// AppName gdata 存储使用的应用名
	AppName string `yaml:"appName" toml:"app_name"`

	Window WindowConfig `yaml:"window" toml:"window"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		TickRate:         60,
		PollInterval:     0.5,
		Period:           FieldRange{Default: 1, Min: 0, Max: 10},
		Quickness:        FieldRange{Default: 1, Min: 0, Max: 10},
		Bounds:           BoundsConfig{Lower: 0, Upper: 0, Min: 0, Max: 1},
		EnableRandomness: true,
		Shape: ShapeConfig{
			Kind:      curve.KindEaseInOut.String(),
			Midpoint:  0.5,
			Curvature: 0,
		},
		AppName: "floatrand",
		Window: WindowConfig{
			Width:   960,
			Height:  600,
			Title:   "Float Param Randomizer",
			History: 600,
		},
	}
}

// Load 加载配置文件
//
// 根据扩展名选择格式：.yaml/.yml 使用 YAML，.toml 使用 TOML。
// 文件中未出现的字段保留默认值。文件不存在时返回默认配置。
//
// 参数:
//   - path: 配置文件路径
//
// 返回:
//   - *Config: 配置
//   - error: 读取、解析或验证失败时返回错误
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse toml config: %w", err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate 验证配置有效性
//
// 检查：
//   - 所有浮点字段都是有限值（NaN 能绕过下面所有比较）
//   - tickRate > 0，pollInterval > 0
//   - 各字段范围 min <= max，默认值在范围内
//   - 上下界 lower <= upper
//   - 曲线族名称合法，中点在 (0,1) 内，曲率在 [0,1] 内
func (c *Config) Validate() error {
	if err := c.validateFinite(); err != nil {
		return err
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("tickRate must be positive, got %d", c.TickRate)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("pollInterval must be positive, got %v", c.PollInterval)
	}
	if err := c.Period.validate("period"); err != nil {
		return err
	}
	if c.Period.Min < 0 {
		return fmt.Errorf("period min must be >= 0, got %v", c.Period.Min)
	}
	if err := c.Quickness.validate("quickness"); err != nil {
		return err
	}
	if c.Quickness.Min < 0 {
		return fmt.Errorf("quickness min must be >= 0, got %v", c.Quickness.Min)
	}
	if c.Bounds.Min > c.Bounds.Max {
		return fmt.Errorf("bounds range invalid: min(%v) > max(%v)", c.Bounds.Min, c.Bounds.Max)
	}
	if c.Bounds.Lower > c.Bounds.Upper {
		return fmt.Errorf("bounds invalid: lower(%v) > upper(%v)", c.Bounds.Lower, c.Bounds.Upper)
	}
	if _, err := curve.ParseKind(c.Shape.Kind); err != nil {
		return err
	}
	if c.Shape.Midpoint <= 0 || c.Shape.Midpoint >= 1 {
		return fmt.Errorf("shape midpoint must be in (0,1), got %v", c.Shape.Midpoint)
	}
	if c.Shape.Curvature < 0 || c.Shape.Curvature > 1 {
		return fmt.Errorf("shape curvature must be in [0,1], got %v", c.Shape.Curvature)
	}
	if c.Window.History < 0 {
		return fmt.Errorf("window history must be >= 0, got %d", c.Window.History)
	}
	return nil
}

// CurveKind 返回解析后的曲线族（Validate 通过后不会失败）
func (c *Config) CurveKind() curve.Kind {
	kind, _ := curve.ParseKind(c.Shape.Kind)
	return kind
}

// TickDelta 每个 tick 的时长（秒）
func (c *Config) TickDelta() float64 {
	if c.TickRate <= 0 {
		return 1.0 / 60
	}
	return 1.0 / float64(c.TickRate)
}

// validateFinite 检查所有浮点字段
func (c *Config) validateFinite() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"pollInterval", c.PollInterval},
		{"period default", c.Period.Default},
		{"period min", c.Period.Min},
		{"period max", c.Period.Max},
		{"quickness default", c.Quickness.Default},
		{"quickness min", c.Quickness.Min},
		{"quickness max", c.Quickness.Max},
		{"bounds lower", c.Bounds.Lower},
		{"bounds upper", c.Bounds.Upper},
		{"bounds min", c.Bounds.Min},
		{"bounds max", c.Bounds.Max},
		{"shape midpoint", c.Shape.Midpoint},
		{"shape curvature", c.Shape.Curvature},
	}
	for _, f := range fields {
		if !curve.IsFinite(f.value) {
			return fmt.Errorf("%s must be finite, got %v", f.name, f.value)
		}
	}
	return nil
}

func (r FieldRange) validate(name string) error {
	if r.Min > r.Max {
		return fmt.Errorf("%s range invalid: min(%v) > max(%v)", name, r.Min, r.Max)
	}
	if r.Default < r.Min || r.Default > r.Max {
		return fmt.Errorf("%s default %v outside [%v, %v]", name, r.Default, r.Min, r.Max)
	}
	return nil
}
