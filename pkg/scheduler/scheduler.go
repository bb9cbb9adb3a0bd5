// Package scheduler 实现插值调度器
//
// 调度器每个 tick 累积时间，在一个插值段 (SegmentStart -> SegmentEnd) 上
// 用曲线推进当前值；累积时间超过周期时翻转到新段。
//
// 两种模式：
//   - 随机模式：新段从当前值出发，终点在 [lower, upper] 内均匀随机
//   - 交替模式：终点在 lower 与 upper 之间来回切换
//
// 模式只在翻转时读取，切换模式不影响正在进行的段。
package scheduler

import (
	"math"
	"math/rand/v2"

	"github.com/decker502/floatrand/pkg/curve"
	"github.com/decker502/floatrand/pkg/settings"
)

// Epsilon 周期小于等于该值时视为 0
const Epsilon = 1e-9

// Mode 调度模式
type Mode int

const (
	// ModeRandom 随机模式
	ModeRandom Mode = iota
	// ModeAlternate 交替模式
	ModeAlternate
)

// String 返回模式名称
func (m Mode) String() string {
	if m == ModeAlternate {
		return "alternate"
	}
	return "random"
}

// State 插值状态
type State struct {
	Accumulated   float64 // 当前段已累积时间（秒）
	SegmentStart  float64 // 段起点
	SegmentEnd    float64 // 段终点（目标值）
	CurrentValue  float64 // 当前值
	AlternateFlip bool    // 交替模式方向：false 朝上界，true 朝下界
}

// ShapeSource 提供当前曲线形状
type ShapeSource interface {
	Current() curve.Shape
}

// Scheduler 插值调度器
//
// 独占 State，只读 settings.Randomization 和曲线形状。
type Scheduler struct {
	cfg   *settings.Randomization
	shape ShapeSource
	rng   *rand.Rand

	state     State
	lastDelta float64
	rollovers int

	// OnRollover 翻转后回调（可选），参数为新段的状态
	OnRollover func(State)
}

// New 创建调度器
//
// 初始状态：所有值等于当前下界，累积时间为 0。
// rng 为 nil 时使用随机种子。
func New(cfg *settings.Randomization, shape ShapeSource, rng *rand.Rand) *Scheduler {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	lower := cfg.Lower.Val()
	return &Scheduler{
		cfg:   cfg,
		shape: shape,
		rng:   rng,
		state: State{
			SegmentStart: lower,
			SegmentEnd:   lower,
			CurrentValue: lower,
		},
	}
}

// NewSeeded 创建使用固定种子的调度器（测试和回放用）
func NewSeeded(cfg *settings.Randomization, shape ShapeSource, seed uint64) *Scheduler {
	return New(cfg, shape, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Mode 当前配置对应的模式（下次翻转时生效）
func (s *Scheduler) Mode() Mode {
	if s.cfg.EnableRandomness.Val() {
		return ModeRandom
	}
	return ModeAlternate
}

// State 返回状态副本
func (s *Scheduler) State() State {
	return s.state
}

// SetState 覆盖状态
func (s *Scheduler) SetState(st State) {
	if st.Accumulated < 0 {
		st.Accumulated = 0
	}
	s.state = st
}

// Value 当前值
func (s *Scheduler) Value() float64 {
	return s.state.CurrentValue
}

// Rollovers 已发生的翻转次数
func (s *Scheduler) Rollovers() int {
	return s.rollovers
}

// Checkpoint 状态、翻转计数和上一 tick 时长的快照
type Checkpoint struct {
	state     State
	rollovers int
	lastDelta float64
}

// Checkpoint 记录当前快照
func (s *Scheduler) Checkpoint() Checkpoint {
	return Checkpoint{state: s.state, rollovers: s.rollovers, lastDelta: s.lastDelta}
}

// Rewind 回到快照（tick 中途失败时撤销本 tick 的推进）
func (s *Scheduler) Rewind(cp Checkpoint) {
	s.state = cp.state
	s.rollovers = cp.rollovers
	s.lastDelta = cp.lastDelta
}

// Update 推进一个 tick
//
// 步骤：
//  1. 累积时间超过周期时翻转到新段
//  2. 累积 deltaTime
//  3. progress = accumulated * quickness / period（不钳制，曲线负责饱和）
//  4. 当前值 = lerp(start, end, curve(progress))
//
// 周期为 0 时 progress 直接取 1，每个 tick 都会翻转并立即到达新终点。
//
// 参数：
//   - deltaTime: 距上一 tick 的时间（秒），负值按 0 处理
//
// 返回：
//   - float64: 本 tick 的当前值
func (s *Scheduler) Update(deltaTime float64) float64 {
	if deltaTime < 0 || math.IsNaN(deltaTime) {
		deltaTime = 0
	}
	s.lastDelta = deltaTime

	period := s.cfg.Period.Val()
	if s.state.Accumulated > period {
		s.rollover()
	}

	s.state.Accumulated += deltaTime

	s.state.CurrentValue = curve.Lerp(
		s.state.SegmentStart,
		s.state.SegmentEnd,
		s.shape.Current().Apply(s.progress(period)),
	)
	return s.state.CurrentValue
}

// progress 当前段的线性进度（未钳制）
func (s *Scheduler) progress(period float64) float64 {
	if period <= Epsilon {
		return 1
	}
	return s.state.Accumulated * s.cfg.Quickness.Val() / period
}

// rollover 翻转到新段
func (s *Scheduler) rollover() {
	s.state.Accumulated = 0
	s.state.SegmentStart = s.state.CurrentValue

	lower, upper := s.cfg.Lower.Val(), s.cfg.Upper.Val()
	switch s.Mode() {
	case ModeRandom:
		s.state.SegmentEnd = s.uniform(lower, upper)
	case ModeAlternate:
		s.state.AlternateFlip = !s.state.AlternateFlip
		if s.state.AlternateFlip {
			s.state.SegmentEnd = lower
		} else {
			s.state.SegmentEnd = upper
		}
	}

	s.rollovers++
	if s.OnRollover != nil {
		s.OnRollover(s.state)
	}
}

// uniform 在 [lower, upper] 内均匀采样
func (s *Scheduler) uniform(lower, upper float64) float64 {
	if upper <= lower {
		return lower
	}
	return lower + s.rng.Float64()*(upper-lower)
}

// Rebind 新目标绑定时重新同步
//
// 当前值、段起点和终点都设为目标的当前值，累积时间设为 period + dt，
// 使下一个 tick 立即翻转，避免从旧值跳变。
func (s *Scheduler) Rebind(value float64) {
	dt := s.lastDelta
	if dt <= 0 {
		dt = Epsilon
	}
	s.state.SegmentStart = value
	s.state.SegmentEnd = value
	s.state.CurrentValue = value
	s.state.Accumulated = s.cfg.Period.Val() + dt
}

// Mirror 目标首次解析时镜像目标值
// 当前值和段终点设为目标值（上下界由调用方设置）
func (s *Scheduler) Mirror(value float64) {
	s.state.CurrentValue = value
	s.state.SegmentEnd = value
}
