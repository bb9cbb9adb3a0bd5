package curve

// Shape 不可变的曲线形状
//
// 由曲线族、中点和用户曲率组成，构造时预先计算指数。
// 修改任一字段都会返回新的 Shape，原值保持不变。
type Shape struct {
	kind      Kind
	midpoint  float64
	curvature float64
	exponent  float64
}

// NewShape 创建曲线形状
// 中点和曲率会被钳制到合法范围（不返回错误），非有限值取 0.5 和 0
func NewShape(kind Kind, midpoint, curvature float64) Shape {
	if _, ok := exponentFuncs[kind]; !ok {
		kind = KindEaseInOut
	}
	if !IsFinite(midpoint) {
		midpoint = 0.5
	}
	if !IsFinite(curvature) {
		curvature = 0
	}
	midpoint = ClampMidpoint(midpoint)
	curvature = Clamp(curvature, 0, 1)
	return Shape{
		kind:      kind,
		midpoint:  midpoint,
		curvature: curvature,
		exponent:  Exponent(kind, curvature, midpoint),
	}
}

// Linear 返回直线形状（缓动族、中点 0.5、曲率 0）
func Linear() Shape {
	return NewShape(KindEaseInOut, 0.5, 0)
}

// Kind 曲线族
func (s Shape) Kind() Kind { return s.kind }

// Midpoint 中点
func (s Shape) Midpoint() float64 { return s.midpoint }

// Curvature 用户曲率 [0,1]
func (s Shape) Curvature() float64 { return s.curvature }

// Exponent 预计算的指数
func (s Shape) Exponent() float64 { return s.exponent }

// WithKind 返回替换曲线族后的新形状
func (s Shape) WithKind(kind Kind) Shape {
	return NewShape(kind, s.midpoint, s.curvature)
}

// WithMidpoint 返回替换中点后的新形状
func (s Shape) WithMidpoint(midpoint float64) Shape {
	return NewShape(s.kind, midpoint, s.curvature)
}

// WithCurvature 返回替换曲率后的新形状
func (s Shape) WithCurvature(curvature float64) Shape {
	return NewShape(s.kind, s.midpoint, curvature)
}

// Apply 对进度 x 应用曲线
func (s Shape) Apply(x float64) float64 {
	// 零值 Shape 没有经过 NewShape，按直线处理
	if s.exponent == 0 {
		return Clamp(x, 0, 1)
	}
	return ParametricSmooth(x, s.exponent, s.midpoint)
}

// Sample 在 [0,1] 上均匀采样 n 个点（n >= 2）
func (s Shape) Sample(n int) []float64 {
	if n < 2 {
		n = 2
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = s.Apply(float64(i) / float64(n-1))
	}
	return out
}
