// Package persist 负责随机器状态的持久化
//
// 存档是扁平的键值文档（键 -> 字符串），包含随机化配置、曲线形状、
// 三级目标引用和版本号。文档以 YAML 编码，通过 gdata 保存。
package persist

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/decker502/floatrand/pkg/curve"
	"github.com/decker502/floatrand/pkg/resolver"
	"github.com/decker502/floatrand/pkg/settings"
	"gopkg.in/yaml.v3"
)

// SchemaVersion 当前存档格式版本
//
// 版本历史：
//   - v1: 初始版本
const SchemaVersion = 1

// 引用和版本的键（配置字段的键见 settings 包）
const (
	KeyVersion   = "version"
	KeyContainer = "atom"
	KeyComponent = "receiver"
	KeyParameter = "receiverTarget"
	KeyGroup     = "group"
)

var (
	// ErrUnsupportedVersion 存档版本高于当前支持的版本
	ErrUnsupportedVersion = errors.New("unsupported document version")
	// ErrMalformedValue 存档中的值无法解析
	ErrMalformedValue = errors.New("malformed value")
)

// Document 扁平键值存档
type Document map[string]string

// Values 存档包含的全部状态
type Values struct {
	Randomization settings.RandomizationValues
	Shape         curve.Shape
	Reference     resolver.Reference
}

// NewDocument 从状态构建存档
func NewDocument(v Values) Document {
	return Document{
		KeyVersion:                   strconv.Itoa(SchemaVersion),
		settings.KeyPeriod:           formatFloat(v.Randomization.Period),
		settings.KeyQuickness:        formatFloat(v.Randomization.Quickness),
		settings.KeyLowerValue:       formatFloat(v.Randomization.Lower),
		settings.KeyUpperValue:       formatFloat(v.Randomization.Upper),
		settings.KeyEnableRandomness: strconv.FormatBool(v.Randomization.EnableRandomness),
		settings.KeyCurveType:        v.Shape.Kind().String(),
		settings.KeyMidpoint:         formatFloat(v.Shape.Midpoint()),
		settings.KeyCurvature:        formatFloat(v.Shape.Curvature()),
		KeyContainer:                 v.Reference.ContainerID,
		KeyComponent:                 v.Reference.ComponentID,
		KeyParameter:                 v.Reference.ParameterName,
	}
}

// Version 存档版本，缺失时视为当前版本
func (d Document) Version() (int, error) {
	raw, ok := d[KeyVersion]
	if !ok || raw == "" {
		return SchemaVersion, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w", KeyVersion, raw, ErrMalformedValue)
	}
	return v, nil
}

// Values 解析存档
//
// 存档中缺失的键保留 defaults 中的值；容器等引用键缺失时为空（未选择）。
//
// 参数：
//   - defaults: 缺省值
//
// 返回：
//   - Values: 解析结果
//   - error: 版本不支持或值格式错误
func (d Document) Values(defaults Values) (Values, error) {
	version, err := d.Version()
	if err != nil {
		return defaults, err
	}
	if version > SchemaVersion {
		return defaults, fmt.Errorf("version %d > %d: %w", version, SchemaVersion, ErrUnsupportedVersion)
	}

	out := defaults
	r := &out.Randomization
	floats := []struct {
		key string
		dst *float64
	}{
		{settings.KeyPeriod, &r.Period},
		{settings.KeyQuickness, &r.Quickness},
		{settings.KeyLowerValue, &r.Lower},
		{settings.KeyUpperValue, &r.Upper},
	}
	for _, f := range floats {
		if err := d.parseFloat(f.key, f.dst); err != nil {
			return defaults, err
		}
	}
	if raw, ok := d[settings.KeyEnableRandomness]; ok {
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return defaults, fmt.Errorf("%s=%q: %w", settings.KeyEnableRandomness, raw, ErrMalformedValue)
		}
		r.EnableRandomness = b
	}

	kind := defaults.Shape.Kind()
	midpoint := defaults.Shape.Midpoint()
	curvature := defaults.Shape.Curvature()
	if raw, ok := d[settings.KeyCurveType]; ok {
		k, err := curve.ParseKind(raw)
		if err != nil {
			return defaults, fmt.Errorf("%s: %v: %w", settings.KeyCurveType, err, ErrMalformedValue)
		}
		kind = k
	}
	if err := d.parseFloat(settings.KeyMidpoint, &midpoint); err != nil {
		return defaults, err
	}
	if err := d.parseFloat(settings.KeyCurvature, &curvature); err != nil {
		return defaults, err
	}
	out.Shape = curve.NewShape(kind, midpoint, curvature)

	out.Reference = d.Reference()
	return out, nil
}

// Reference 存档中的目标引用
func (d Document) Reference() resolver.Reference {
	return resolver.Reference{
		ContainerID:   d[KeyContainer],
		ComponentID:   d[KeyComponent],
		ParameterName: d[KeyParameter],
	}
}

// Keys 排序后的键列表
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (d Document) parseFloat(key string, dst *float64) error {
	raw, ok := d[key]
	if !ok {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || !curve.IsFinite(v) {
		return fmt.Errorf("%s=%q: %w", key, raw, ErrMalformedValue)
	}
	*dst = v
	return nil
}

// Encode 将存档编码为 YAML
func Encode(d Document) ([]byte, error) {
	data, err := yaml.Marshal(map[string]string(d))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return data, nil
}

// Decode 从 YAML 解码存档
func Decode(data []byte) (Document, error) {
	var m map[string]string
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	if m == nil {
		m = make(map[string]string)
	}
	return Document(m), nil
}

// Rebase 把存档中的容器引用从保存时的分组改写到分组 to
//
// 保存时的分组取自 KeyGroup，缺失视为空分组。分组相同时原样返回，
// 否则返回新存档，原存档不变。
func (d Document) Rebase(to string) Document {
	from := d[KeyGroup]
	if from == to {
		return d
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	if id, ok := d[KeyContainer]; ok {
		out[KeyContainer] = rebaseContainer(id, from, to)
	}
	if to == "" {
		delete(out, KeyGroup)
	} else {
		out[KeyGroup] = to
	}
	return out
}

// rebaseContainer 在不同的分组前缀之间改写容器ID
//
// 前缀与ID之间以 "/" 分隔；ID 不带 from 前缀时原样返回。
//
// 示例：rebaseContainer("GroupA/Person", "GroupA", "GroupB") = "GroupB/Person"
func rebaseContainer(id, from, to string) string {
	if id == "" || from == to {
		return id
	}
	rest := id
	if from != "" {
		prefix := from + "/"
		if !strings.HasPrefix(id, prefix) {
			return id
		}
		rest = strings.TrimPrefix(id, prefix)
	}
	if to == "" {
		return rest
	}
	return to + "/" + rest
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
