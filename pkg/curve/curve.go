// Package curve 提供参数化缓动曲线
//
// 所有曲线函数都是纯函数：输入线性进度 x，输出缓动后的进度。
// 曲线经过 (0,0)、(midpoint,midpoint)、(1,1) 三个点，陡峭程度由指数控制。
//
// 参考图像：https://www.desmos.com/calculator/7e1tgd7jqr
package curve

import (
	"fmt"
	"math"
	"strings"
)

// Kind 曲线族类型
type Kind int

const (
	// KindEaseInOut 缓入缓出（仅平滑，不过冲）
	KindEaseInOut Kind = iota
	// KindBounceInOut 弹入弹出（两端陡峭，中段平缓）
	KindBounceInOut
)

// 曲线参数合法范围
const (
	// MinMidpoint / MaxMidpoint 中点必须远离 0 和 1，否则公式除零
	MinMidpoint = 0.01
	MaxMidpoint = 0.99

	// MinExponent / MaxExponent 指数钳制范围，保证曲线处处有定义
	MinExponent = 0.01
	MaxExponent = 64.0

	// easeScale 缓动族的曲率缩放上限
	easeScale = 3.5
	// bounceScale 弹跳族的曲率缩放上限（取负）
	bounceScale = 6.2
)

// kindNames 曲线族名称（用于配置文件和持久化）
var kindNames = map[Kind]string{
	KindEaseInOut:   "easeInOut",
	KindBounceInOut: "bounceInOut",
}

// ExponentFunc 将用户曲率 [0,1] 和中点映射为 ParametricSmooth 的指数
type ExponentFunc func(curvature, midpoint float64) float64

// exponentFuncs 每个曲线族对应的指数映射
// 新增曲线族只需在此注册新的映射，ParametricSmooth 本身不需要改动
var exponentFuncs = map[Kind]ExponentFunc{
	KindEaseInOut:   EaseInOutExponent,
	KindBounceInOut: BounceInOutExponent,
}

// Kinds 返回所有曲线族（按声明顺序）
func Kinds() []Kind {
	return []Kind{KindEaseInOut, KindBounceInOut}
}

// String 返回曲线族名称
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Next 返回下一个曲线族（循环）
func (k Kind) Next() Kind {
	kinds := Kinds()
	for i, kind := range kinds {
		if kind == k {
			return kinds[(i+1)%len(kinds)]
		}
	}
	return KindEaseInOut
}

// ParseKind 解析曲线族名称（不区分大小写）
func ParseKind(name string) (Kind, error) {
	for kind, kindName := range kindNames {
		if strings.EqualFold(kindName, strings.TrimSpace(name)) {
			return kind, nil
		}
	}
	return KindEaseInOut, fmt.Errorf("unknown curve kind %q", name)
}

// ParametricSmooth 参数化平滑函数
//
// 参数：
//   - x: 线性进度，不限范围（x<0 返回 0，x>1 返回 1）
//   - exponent: 曲线指数，1 为直线
//   - midpoint: 中点，必须在 (0,1) 内
//
// 公式：
//
//	x < midpoint:  x^e / midpoint^(e-1)
//	x >= midpoint: 1 - (1-x)^e / (1-midpoint)^(e-1)
func ParametricSmooth(x, exponent, midpoint float64) float64 {
	// NaN 也走饱和分支
	if !(x > 0) {
		return 0
	}
	if x >= 1 {
		return 1
	}
	if x < midpoint {
		return segment(x, midpoint, exponent)
	}
	return 1 - segment(1-x, 1-midpoint, exponent)
}

// segment 单侧幂函数段
func segment(value, n, c float64) float64 {
	return math.Pow(value, c) / math.Pow(n, c-1)
}

// AdjustedCurvature 调整曲率，使曲率 0 在任意中点下都对应直线
func AdjustedCurvature(curvature, midpoint float64) float64 {
	return (curvature - 1) * (midpoint - 1) / (midpoint + 1)
}

// EaseInOutExponent 缓动族指数映射
// 曲率 [0,1] 映射到 [0,3.5]，指数 >= 1
func EaseInOutExponent(curvature, midpoint float64) float64 {
	scaled := Lerp(0, easeScale, curvature)
	return exponentFrom(AdjustedCurvature(scaled, midpoint), midpoint)
}

// BounceInOutExponent 弹跳族指数映射
// 曲率 [0,1] 映射到 [0,-6.2]，指数 <= 1
func BounceInOutExponent(curvature, midpoint float64) float64 {
	scaled := -Lerp(0, bounceScale, curvature)
	return exponentFrom(AdjustedCurvature(scaled, midpoint), midpoint)
}

// exponentFrom 由调整后的曲率计算指数：2/(1+p) - midpoint
// 当 1+p 趋近 0 或为负时（小中点 + 大曲率），钳制到 MaxExponent
func exponentFrom(adjusted, midpoint float64) float64 {
	denom := 1 + adjusted
	if denom <= 2/(MaxExponent+midpoint) {
		return MaxExponent
	}
	return Clamp(2/denom-midpoint, MinExponent, MaxExponent)
}

// Exponent 计算指定曲线族的指数
func Exponent(kind Kind, curvature, midpoint float64) float64 {
	fn, ok := exponentFuncs[kind]
	if !ok {
		fn = EaseInOutExponent
	}
	return fn(Clamp(curvature, 0, 1), ClampMidpoint(midpoint))
}

// ClampMidpoint 将中点限制在合法范围内
func ClampMidpoint(midpoint float64) float64 {
	return Clamp(midpoint, MinMidpoint, MaxMidpoint)
}

// Lerp 线性插值
// t=0 精确返回 a，t=1 精确返回 b
func Lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// IsFinite v 既不是 NaN 也不是 ±Inf
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Clamp 将 v 限制在 [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
