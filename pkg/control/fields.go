// Package control 定义调参界面共用的可调字段
//
// 桌面版和终端版都通过这里读写随机器的设置，保证两者行为一致。
package control

import (
	"fmt"

	"github.com/decker502/floatrand/pkg/params"
	"github.com/decker502/floatrand/pkg/randomizer"
	"github.com/decker502/floatrand/pkg/resolver"
)

// Field 可调节的字段
type Field int

const (
	FieldPeriod Field = iota
	FieldQuickness
	FieldLower
	FieldUpper
	FieldMidpoint
	FieldCurvature
	FieldContainer
	FieldComponent
	FieldParameter

	FieldCount
)

// fieldNames 字段显示名称
var fieldNames = [FieldCount]string{
	FieldPeriod:    "period",
	FieldQuickness: "quickness",
	FieldLower:     "lower",
	FieldUpper:     "upper",
	FieldMidpoint:  "midpoint",
	FieldCurvature: "curvature",
	FieldContainer: "container",
	FieldComponent: "component",
	FieldParameter: "parameter",
}

// String 字段名称
func (f Field) String() string {
	if f >= 0 && f < FieldCount {
		return fieldNames[f]
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// Next 下一个字段（循环）
func (f Field) Next() Field {
	return (f + 1) % FieldCount
}

// Prev 上一个字段（循环）
func (f Field) Prev() Field {
	return (f - 1 + FieldCount) % FieldCount
}

// Level 引用字段对应的层级
func (f Field) Level() (resolver.Level, bool) {
	switch f {
	case FieldContainer:
		return resolver.LevelContainer, true
	case FieldComponent:
		return resolver.LevelComponent, true
	case FieldParameter:
		return resolver.LevelParameter, true
	}
	return 0, false
}

// 步长：精细模式下乘以 fineScale
const (
	timeStep  = 0.1
	shapeStep = 0.05
	// boundsSteps 上下界合法范围分成的步数
	boundsSteps = 20
	fineScale   = 0.1
)

// Adjust 调节字段
//
// 参数：
//   - rnd: 随机器
//   - f: 字段
//   - dir: +1 增加（或下一个选项），-1 减少（或上一个选项）
//   - fine: 精细模式
func Adjust(rnd *randomizer.Randomizer, f Field, dir int, fine bool) error {
	if level, ok := f.Level(); ok {
		_, err := rnd.CycleSelection(level, dir)
		return err
	}

	scale := float64(dir)
	if fine {
		scale *= fineScale
	}

	s, shape := rnd.Settings, rnd.Shape
	switch f {
	case FieldPeriod:
		return rnd.SetPeriod(s.Period.Val() + timeStep*scale)
	case FieldQuickness:
		return rnd.SetQuickness(s.Quickness.Val() + timeStep*scale)
	case FieldLower:
		return rnd.SetLower(s.Lower.Val() + boundsStep(s.Lower)*scale)
	case FieldUpper:
		return rnd.SetUpper(s.Upper.Val() + boundsStep(s.Upper)*scale)
	case FieldMidpoint:
		return rnd.SetMidpoint(shape.Midpoint.Val() + shapeStep*scale)
	case FieldCurvature:
		return rnd.SetCurvature(shape.Curvature.Val() + shapeStep*scale)
	}
	return fmt.Errorf("unknown field %d", int(f))
}

// boundsStep 上下界步长：合法范围的 1/boundsSteps
func boundsStep(f *params.Float) float64 {
	span := f.Max() - f.Min()
	if span <= 0 {
		return shapeStep
	}
	return span / boundsSteps
}

// Value 字段的显示文本
func Value(rnd *randomizer.Randomizer, f Field) string {
	if level, ok := f.Level(); ok {
		res := rnd.Resolver()
		id := res.Selected(level)
		if id == "" {
			id = params.None
		}
		return fmt.Sprintf("%s (%s)", id, res.State(level))
	}

	s, shape := rnd.Settings, rnd.Shape
	switch f {
	case FieldPeriod:
		return fmt.Sprintf("%.2f", s.Period.Val())
	case FieldQuickness:
		return fmt.Sprintf("%.2f", s.Quickness.Val())
	case FieldLower:
		return fmt.Sprintf("%.3f  [%.2f, %.2f]", s.Lower.Val(), s.Lower.Min(), s.Lower.Max())
	case FieldUpper:
		return fmt.Sprintf("%.3f  [%.2f, %.2f]", s.Upper.Val(), s.Upper.Min(), s.Upper.Max())
	case FieldMidpoint:
		return fmt.Sprintf("%.2f", shape.Midpoint.Val())
	case FieldCurvature:
		return fmt.Sprintf("%.2f", shape.Curvature.Val())
	}
	return ""
}
