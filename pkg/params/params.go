// Package params 提供可观察的配置字段
//
// 每个字段持有一个值和至多一个 OnChange 回调（单订阅者）。
// 写入值时如果值发生变化就调用回调；SetNoCallback 用于恢复存档等
// 不希望触发副作用的场合。
package params

import "github.com/decker502/floatrand/pkg/curve"

// Float 浮点字段
//
// Min/Max 是合法范围。Constrain 为 true 时写入的值会被钳制到范围内；
// 为 false 时范围只作为界面提示（滑块范围），值本身不受限制。
// NaN 和 ±Inf 的写入一律忽略。
type Float struct {
	name      string
	val       float64
	def       float64
	min       float64
	max       float64
	constrain bool
	onChange  func(float64)
}

// NewFloat 创建浮点字段
func NewFloat(name string, def, min, max float64, constrain bool) *Float {
	if min > max {
		min, max = max, min
	}
	f := &Float{
		name:      name,
		min:       min,
		max:       max,
		constrain: constrain,
	}
	f.def = f.clamp(def)
	f.val = f.def
	return f
}

// Name 字段名（同时作为持久化键）
func (f *Float) Name() string { return f.name }

// Val 当前值
func (f *Float) Val() float64 { return f.val }

// Default 默认值
func (f *Float) Default() float64 { return f.def }

// Min 合法范围下限
func (f *Float) Min() float64 { return f.min }

// Max 合法范围上限
func (f *Float) Max() float64 { return f.max }

// Constrained 是否钳制写入值
func (f *Float) Constrained() bool { return f.constrain }

// OnChange 设置值变化回调（覆盖之前的回调，nil 表示取消）
func (f *Float) OnChange(fn func(float64)) {
	f.onChange = fn
}

// Set 写入值，值变化时调用回调
func (f *Float) Set(v float64) {
	if !curve.IsFinite(v) {
		return
	}
	v = f.clamp(v)
	if v == f.val {
		return
	}
	f.val = v
	if f.onChange != nil {
		f.onChange(v)
	}
}

// SetNoCallback 写入值但不调用回调
func (f *Float) SetNoCallback(v float64) {
	if !curve.IsFinite(v) {
		return
	}
	f.val = f.clamp(v)
}

// SetRange 修改合法范围
// 钳制模式下当前值会被拉回新范围（并触发回调）
func (f *Float) SetRange(min, max float64) {
	if !curve.IsFinite(min) || !curve.IsFinite(max) {
		return
	}
	if min > max {
		min, max = max, min
	}
	f.min = min
	f.max = max
	if f.constrain {
		f.Set(f.val)
	}
}

// Reset 恢复默认值
func (f *Float) Reset() {
	f.Set(f.def)
}

func (f *Float) clamp(v float64) float64 {
	if !f.constrain {
		return v
	}
	return curve.Clamp(v, f.min, f.max)
}

// Bool 布尔字段
type Bool struct {
	name     string
	val      bool
	def      bool
	onChange func(bool)
}

// NewBool 创建布尔字段
func NewBool(name string, def bool) *Bool {
	return &Bool{name: name, val: def, def: def}
}

// Name 字段名
func (b *Bool) Name() string { return b.name }

// Val 当前值
func (b *Bool) Val() bool { return b.val }

// Default 默认值
func (b *Bool) Default() bool { return b.def }

// OnChange 设置值变化回调
func (b *Bool) OnChange(fn func(bool)) {
	b.onChange = fn
}

// Set 写入值，值变化时调用回调
func (b *Bool) Set(v bool) {
	if v == b.val {
		return
	}
	b.val = v
	if b.onChange != nil {
		b.onChange(v)
	}
}

// SetNoCallback 写入值但不调用回调
func (b *Bool) SetNoCallback(v bool) {
	b.val = v
}

// Toggle 取反
func (b *Bool) Toggle() {
	b.Set(!b.val)
}
