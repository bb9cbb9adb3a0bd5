// Package settings 持有随机器的实时配置
//
// Randomization 和 Shape 由用户随时修改，调度器每个 tick 只读取它们；
// 修改不会重置正在进行的插值段。
package settings

import (
	"github.com/decker502/floatrand/pkg/config"
	"github.com/decker502/floatrand/pkg/curve"
	"github.com/decker502/floatrand/pkg/params"
)

// 字段名（同时是持久化键）
const (
	KeyPeriod           = "period"
	KeyQuickness        = "quickness"
	KeyLowerValue       = "lowerValue"
	KeyUpperValue       = "upperValue"
	KeyEnableRandomness = "enableRandomness"
	KeyCurveType        = "curveType"
	KeyMidpoint         = "midpoint"
	KeyCurvature        = "curvature"
)

// Randomization 随机化配置
//
// 不变量：Lower <= Upper。写入时相互钳制：
// 把下界抬到上界之上会同时抬高上界，反之亦然。
type Randomization struct {
	Period           *params.Float
	Quickness        *params.Float
	Lower            *params.Float
	Upper            *params.Float
	EnableRandomness *params.Bool

	onBoundsChange func(lower, upper float64)
}

// NewRandomization 根据配置创建随机化配置
func NewRandomization(cfg *config.Config) *Randomization {
	r := &Randomization{
		Period:           params.NewFloat(KeyPeriod, cfg.Period.Default, cfg.Period.Min, cfg.Period.Max, false),
		Quickness:        params.NewFloat(KeyQuickness, cfg.Quickness.Default, cfg.Quickness.Min, cfg.Quickness.Max, true),
		Lower:            params.NewFloat(KeyLowerValue, cfg.Bounds.Lower, cfg.Bounds.Min, cfg.Bounds.Max, false),
		Upper:            params.NewFloat(KeyUpperValue, cfg.Bounds.Upper, cfg.Bounds.Min, cfg.Bounds.Max, false),
		EnableRandomness: params.NewBool(KeyEnableRandomness, cfg.EnableRandomness),
	}

	r.Lower.OnChange(func(v float64) {
		if v > r.Upper.Val() {
			r.Upper.Set(v)
		}
		r.notifyBounds()
	})
	r.Upper.OnChange(func(v float64) {
		if v < r.Lower.Val() {
			r.Lower.Set(v)
		}
		r.notifyBounds()
	})

	return r
}

// OnBoundsChange 设置上下界变化回调
func (r *Randomization) OnBoundsChange(fn func(lower, upper float64)) {
	r.onBoundsChange = fn
}

func (r *Randomization) notifyBounds() {
	if r.onBoundsChange != nil {
		r.onBoundsChange(r.Lower.Val(), r.Upper.Val())
	}
}

// SetPeriod 设置周期（负值按 0 处理）
func (r *Randomization) SetPeriod(v float64) {
	if v < 0 {
		v = 0
	}
	r.Period.Set(v)
}

// SetQuickness 设置速度
func (r *Randomization) SetQuickness(v float64) {
	if v < 0 {
		v = 0
	}
	r.Quickness.Set(v)
}

// SetLower 设置下界（必要时抬高上界）
func (r *Randomization) SetLower(v float64) {
	r.Lower.Set(v)
}

// SetUpper 设置上界（必要时压低下界）
func (r *Randomization) SetUpper(v float64) {
	r.Upper.Set(v)
}

// SetBounds 同时设置上下界
// lower > upper 时按先写下界、再写上界的顺序钳制，结果两者都等于 upper
func (r *Randomization) SetBounds(lower, upper float64) {
	r.Lower.Set(lower)
	r.Upper.Set(upper)
}

// SetBoundsRange 修改上下界的合法范围（界面提示，不改变当前值）
func (r *Randomization) SetBoundsRange(min, max float64) {
	r.Lower.SetRange(min, max)
	r.Upper.SetRange(min, max)
}

// SetEnableRandomness 切换随机模式
func (r *Randomization) SetEnableRandomness(v bool) {
	r.EnableRandomness.Set(v)
}

// Snapshot 只读快照
func (r *Randomization) Snapshot() RandomizationValues {
	return RandomizationValues{
		Period:           r.Period.Val(),
		Quickness:        r.Quickness.Val(),
		Lower:            r.Lower.Val(),
		Upper:            r.Upper.Val(),
		EnableRandomness: r.EnableRandomness.Val(),
	}
}

// Apply 不触发回调地写入快照（用于恢复存档）
// 非有限值保留当前值；写入后仍保证 Lower <= Upper
func (r *Randomization) Apply(v RandomizationValues) {
	r.Period.SetNoCallback(max(v.Period, 0))
	r.Quickness.SetNoCallback(max(v.Quickness, 0))
	lower, upper := v.Lower, v.Upper
	if !curve.IsFinite(lower) {
		lower = r.Lower.Val()
	}
	if !curve.IsFinite(upper) {
		upper = r.Upper.Val()
	}
	if lower > upper {
		upper = lower
	}
	r.Lower.SetNoCallback(lower)
	r.Upper.SetNoCallback(upper)
	r.EnableRandomness.SetNoCallback(v.EnableRandomness)
}

// RandomizationValues 随机化配置的值快照
type RandomizationValues struct {
	Period           float64
	Quickness        float64
	Lower            float64
	Upper            float64
	EnableRandomness bool
}

// Shape 曲线形状配置
//
// 任一字段变化时重新计算不可变的 curve.Shape。
type Shape struct {
	Kind      *params.Chooser
	Midpoint  *params.Float
	Curvature *params.Float

	current  curve.Shape
	onChange func(curve.Shape)
}

// NewShape 根据配置创建曲线形状配置
func NewShape(cfg *config.Config) *Shape {
	names := make([]string, 0, len(curve.Kinds()))
	for _, k := range curve.Kinds() {
		names = append(names, k.String())
	}

	s := &Shape{
		Kind:      params.NewChooser(KeyCurveType, names),
		Midpoint:  params.NewFloat(KeyMidpoint, cfg.Shape.Midpoint, curve.MinMidpoint, curve.MaxMidpoint, true),
		Curvature: params.NewFloat(KeyCurvature, cfg.Shape.Curvature, 0, 1, true),
	}
	s.Kind.SetNoCallback(cfg.CurveKind().String())

	s.Kind.OnChange(func(string) { s.recompute() })
	s.Midpoint.OnChange(func(float64) { s.recompute() })
	s.Curvature.OnChange(func(float64) { s.recompute() })
	s.recompute()
	return s
}

// Current 当前曲线形状
func (s *Shape) Current() curve.Shape {
	return s.current
}

// OnChange 设置形状变化回调
func (s *Shape) OnChange(fn func(curve.Shape)) {
	s.onChange = fn
}

// SetKind 设置曲线族
func (s *Shape) SetKind(kind curve.Kind) {
	s.Kind.Set(kind.String())
}

// CycleKind 切换到下一个曲线族
func (s *Shape) CycleKind() curve.Kind {
	next := s.current.Kind().Next()
	s.SetKind(next)
	return next
}

// SetMidpoint 设置中点（钳制到合法范围）
func (s *Shape) SetMidpoint(v float64) {
	s.Midpoint.Set(v)
}

// SetCurvature 设置曲率（钳制到 [0,1]）
func (s *Shape) SetCurvature(v float64) {
	s.Curvature.Set(v)
}

// Apply 不触发外部回调地写入形状（用于恢复存档），但会重新计算
func (s *Shape) Apply(shape curve.Shape) {
	s.Kind.SetNoCallback(shape.Kind().String())
	s.Midpoint.SetNoCallback(shape.Midpoint())
	s.Curvature.SetNoCallback(shape.Curvature())
	s.current = curve.NewShape(shape.Kind(), s.Midpoint.Val(), s.Curvature.Val())
}

func (s *Shape) recompute() {
	kind, err := curve.ParseKind(s.Kind.Val())
	if err != nil {
		kind = s.current.Kind()
	}
	s.current = curve.NewShape(kind, s.Midpoint.Val(), s.Curvature.Val())
	if s.onChange != nil {
		s.onChange(s.current)
	}
}
