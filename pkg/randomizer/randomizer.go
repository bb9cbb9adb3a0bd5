// Package randomizer 组合曲线、调度器和目标解析器
//
// 每个 tick 的顺序：
//  1. 解析器按固定间隔重试未解析的引用
//  2. 调度器推进当前值
//  3. 目标已绑定时写入当前值
//
// 生命周期分两个阶段：Uninitialized 和 Ready。
// Uninitialized 阶段所有 tick 和修改操作都不生效。
package randomizer

import (
	"errors"
	"fmt"
	"log"
	"runtime/debug"

	"github.com/decker502/floatrand/pkg/config"
	"github.com/decker502/floatrand/pkg/curve"
	"github.com/decker502/floatrand/pkg/directory"
	"github.com/decker502/floatrand/pkg/persist"
	"github.com/decker502/floatrand/pkg/resolver"
	"github.com/decker502/floatrand/pkg/scheduler"
	"github.com/decker502/floatrand/pkg/settings"
	"github.com/google/uuid"
)

// ErrNotReady 生命周期未就绪时的修改操作
var ErrNotReady = errors.New("randomizer not ready")

// Phase 生命周期阶段
type Phase int

const (
	// Uninitialized 未初始化（或正在等待恢复存档）
	Uninitialized Phase = iota
	// Ready 就绪
	Ready
)

// String 返回阶段名称
func (p Phase) String() string {
	if p == Ready {
		return "ready"
	}
	return "uninitialized"
}

// Randomizer 浮点参数随机器
type Randomizer struct {
	id  uuid.UUID
	cfg *config.Config

	Settings *settings.Randomization
	Shape    *settings.Shape

	sched *scheduler.Scheduler
	res   *resolver.Resolver
	store *persist.Store

	phase Phase

	// 延迟恢复：hostReady 返回 true 后在 tick 中应用 pendingDoc
	pendingDoc persist.Document
	hostReady  func() bool

	ticks   int
	writes  int
	lastErr error
}

// Option 创建选项
type Option func(*Randomizer)

// WithID 使用指定的实例ID（恢复已有实例的存档时使用）
func WithID(id uuid.UUID) Option {
	return func(r *Randomizer) { r.id = id }
}

// WithStore 使用指定的存储
func WithStore(store *persist.Store) Option {
	return func(r *Randomizer) { r.store = store }
}

// New 创建随机器
//
// 参数：
//   - cfg: 应用配置，nil 时使用 config.Default()
//   - dir: 目标目录
//   - opts: 可选项
//
// 返回：
//   - *Randomizer: 处于 Uninitialized 阶段的随机器，需调用 Init、Restore 或 ScheduleRestore
func New(cfg *config.Config, dir directory.Directory, opts ...Option) *Randomizer {
	if cfg == nil {
		cfg = config.Default()
	}

	r := &Randomizer{
		id:       uuid.New(),
		cfg:      cfg,
		Settings: settings.NewRandomization(cfg),
		Shape:    settings.NewShape(cfg),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		r.store = persist.NewStore(nil)
	}

	if cfg.Seed != 0 {
		r.sched = scheduler.NewSeeded(r.Settings, r.Shape, cfg.Seed)
	} else {
		r.sched = scheduler.New(r.Settings, r.Shape, nil)
	}

	r.res = resolver.New(dir, cfg.PollInterval)
	r.res.OnBound(r.handleBound)
	r.res.OnUnbound(func() {
		log.Printf("[Randomizer] %s target unbound", r.id)
	})

	log.Printf("[Randomizer] Created %s (period=%.2f quickness=%.2f poll=%.2fs)",
		r.id, r.Settings.Period.Val(), r.Settings.Quickness.Val(), r.res.PollInterval())
	return r
}

// ID 实例ID（同时是存档对象名）
func (r *Randomizer) ID() uuid.UUID {
	return r.id
}

// Phase 当前生命周期阶段
func (r *Randomizer) Phase() Phase {
	return r.phase
}

// Scheduler 调度器（只读访问）
func (r *Randomizer) Scheduler() *scheduler.Scheduler {
	return r.sched
}

// Resolver 解析器（只读访问）
func (r *Randomizer) Resolver() *resolver.Resolver {
	return r.res
}

// Value 当前值
func (r *Randomizer) Value() float64 {
	return r.sched.Value()
}

// TargetValue 当前段的终点
func (r *Randomizer) TargetValue() float64 {
	return r.sched.State().SegmentEnd
}

// Ticks 已执行的有效 tick 数
func (r *Randomizer) Ticks() int {
	return r.ticks
}

// Writes 写入目标的次数
func (r *Randomizer) Writes() int {
	return r.writes
}

// LastError 最近一次 tick 中捕获的错误
func (r *Randomizer) LastError() error {
	return r.lastErr
}

// Init 不恢复存档直接进入 Ready
//
// 配置了默认容器且当前未选择容器时选择默认容器；默认容器不存在只记录警告。
func (r *Randomizer) Init() {
	if r.phase == Ready {
		return
	}
	r.pendingDoc = nil
	r.hostReady = nil
	r.phase = Ready

	if def := r.cfg.DefaultContainer; def != "" && r.res.Selected(resolver.LevelContainer) == "" {
		if err := r.res.SelectContainer(def); err != nil {
			log.Printf("[Randomizer] Warning: default container: %v", err)
		}
	}
	log.Printf("[Randomizer] %s ready", r.id)
}

// ScheduleRestore 延迟恢复存档
//
// 每个 tick 检查 hostReady，返回 true 时应用存档并进入 Ready。
// 在此之前 tick 不做任何事。hostReady 为 nil 时下一个 tick 即恢复。
func (r *Randomizer) ScheduleRestore(doc persist.Document, hostReady func() bool) {
	r.phase = Uninitialized
	r.pendingDoc = doc
	r.hostReady = hostReady
	log.Printf("[Randomizer] %s restore scheduled (%d keys)", r.id, len(doc))
}

// Restore 立即恢复存档并进入 Ready
//
// 存档保存时的分组与当前分组不同时先改写容器引用。
// 恢复顺序：配置字段和曲线形状（不触发回调），然后按容器、组件、参数的顺序
// 解析引用，绑定时不镜像值。
func (r *Randomizer) Restore(doc persist.Document) error {
	r.pendingDoc = nil
	r.hostReady = nil

	doc = doc.Rebase(r.cfg.Group)
	v, err := doc.Values(r.values())
	if err != nil {
		log.Printf("[Randomizer] ERROR: %s restore failed: %v", r.id, err)
		return fmt.Errorf("restore %s: %w", r.id, err)
	}

	r.Settings.Apply(v.Randomization)
	r.Shape.Apply(v.Shape)
	r.res.Restore(v.Reference)

	r.phase = Ready
	log.Printf("[Randomizer] %s restored", r.id)
	return nil
}

// Snapshot 当前状态的存档（配置了分组时一并记录）
func (r *Randomizer) Snapshot() persist.Document {
	doc := persist.NewDocument(r.values())
	if r.cfg.Group != "" {
		doc[persist.KeyGroup] = r.cfg.Group
	}
	return doc
}

// Save 保存存档到存储
func (r *Randomizer) Save() error {
	if r.phase != Ready {
		return ErrNotReady
	}
	return r.store.Save(r.id.String(), r.Snapshot())
}

// Load 从存储读取存档并恢复
//
// 返回：
//   - bool: 存档是否存在
//   - error: 读取或恢复失败
func (r *Randomizer) Load() (bool, error) {
	doc, ok, err := r.store.Load(r.id.String())
	if err != nil || !ok {
		return ok, err
	}
	return true, r.Restore(doc)
}

// Close 释放目录事件订阅
func (r *Randomizer) Close() {
	r.res.Close()
}

// Tick 推进一个 tick
//
// 未就绪时不做任何事（延迟恢复的条件满足时在本 tick 完成恢复）。
// tick 内的 panic 会被捕获并记录，本 tick 返回 false。调度器推进之后的 panic
// （例如写入目标时）会让调度器回到推进前的状态；解析器在本 tick 内完成的绑定不撤销。
//
// 参数：
//   - deltaTime: 距上一 tick 的时间（秒）
//
// 返回：
//   - bool: 本 tick 是否推进了当前值
func (r *Randomizer) Tick(deltaTime float64) (advanced bool) {
	var cp scheduler.Checkpoint
	updating := false
	defer func() {
		if rec := recover(); rec != nil {
			if updating {
				r.sched.Rewind(cp)
			}
			r.lastErr = fmt.Errorf("tick panic: %v", rec)
			log.Printf("[Randomizer] ERROR: %s tick panic: %v\n%s", r.id, rec, debug.Stack())
			advanced = false
		}
	}()

	if r.phase != Ready {
		r.tryCompleteRestore()
		return false
	}

	r.res.Poll(deltaTime)
	cp, updating = r.sched.Checkpoint(), true
	value := r.sched.Update(deltaTime)
	if r.res.Write(value) {
		r.writes++
	}
	r.ticks++
	return true
}

// tryCompleteRestore 宿主就绪后应用延迟的存档
func (r *Randomizer) tryCompleteRestore() {
	if r.pendingDoc == nil {
		return
	}
	if r.hostReady != nil && !r.hostReady() {
		return
	}
	if err := r.Restore(r.pendingDoc); err != nil {
		// 存档损坏时使用当前配置继续
		r.lastErr = err
		r.Init()
	}
}

// handleBound 目标绑定时同步配置和调度器
//
// 目标的范围总是复制到上下界的合法范围；mirror 为 true 时
// 上下界、当前值和终点都设为目标的当前值。无论是否镜像都会重新同步调度器。
func (r *Randomizer) handleBound(p directory.NumericParameter, mirror bool) {
	value := p.Value()
	r.Settings.SetBoundsRange(p.Min(), p.Max())
	if mirror {
		r.Settings.SetBounds(value, value)
		r.sched.Mirror(value)
	}
	r.sched.Rebind(value)
}

// values 当前状态
func (r *Randomizer) values() persist.Values {
	return persist.Values{
		Randomization: r.Settings.Snapshot(),
		Shape:         r.Shape.Current(),
		Reference:     r.res.Reference(),
	}
}

// gate 检查生命周期
func (r *Randomizer) gate() error {
	if r.phase != Ready {
		return ErrNotReady
	}
	return nil
}

// SetPeriod 设置周期
func (r *Randomizer) SetPeriod(v float64) error {
	if err := r.gate(); err != nil {
		return err
	}
	r.Settings.SetPeriod(v)
	return nil
}

// SetQuickness 设置速度
func (r *Randomizer) SetQuickness(v float64) error {
	if err := r.gate(); err != nil {
		return err
	}
	r.Settings.SetQuickness(v)
	return nil
}

// SetLower 设置下界
func (r *Randomizer) SetLower(v float64) error {
	if err := r.gate(); err != nil {
		return err
	}
	r.Settings.SetLower(v)
	return nil
}

// SetUpper 设置上界
func (r *Randomizer) SetUpper(v float64) error {
	if err := r.gate(); err != nil {
		return err
	}
	r.Settings.SetUpper(v)
	return nil
}

// SetEnableRandomness 切换随机模式（下次翻转生效）
func (r *Randomizer) SetEnableRandomness(v bool) error {
	if err := r.gate(); err != nil {
		return err
	}
	r.Settings.SetEnableRandomness(v)
	return nil
}

// SetCurveKind 设置曲线族
func (r *Randomizer) SetCurveKind(kind curve.Kind) error {
	if err := r.gate(); err != nil {
		return err
	}
	r.Shape.SetKind(kind)
	return nil
}

// SetMidpoint 设置曲线中点
func (r *Randomizer) SetMidpoint(v float64) error {
	if err := r.gate(); err != nil {
		return err
	}
	r.Shape.SetMidpoint(v)
	return nil
}

// SetCurvature 设置曲率
func (r *Randomizer) SetCurvature(v float64) error {
	if err := r.gate(); err != nil {
		return err
	}
	r.Shape.SetCurvature(v)
	return nil
}

// Select 选择指定层级的目标
func (r *Randomizer) Select(level resolver.Level, id string) error {
	if err := r.gate(); err != nil {
		return err
	}
	return r.res.Select(level, id)
}

// CycleSelection 在指定层级的可选项中循环切换
//
// 参数：
//   - level: 层级
//   - delta: 步长（+1 下一个，-1 上一个）
//
// 返回：
//   - string: 新选择（空字符串表示 None）
//   - error: 未就绪或容器不一致
func (r *Randomizer) CycleSelection(level resolver.Level, delta int) (string, error) {
	if err := r.gate(); err != nil {
		return "", err
	}

	choices := r.res.Choices(level)
	current := r.res.Selected(level)
	idx := 0
	for i, c := range choices {
		if i > 0 && c == current {
			idx = i
			break
		}
	}
	n := len(choices)
	next := choices[((idx+delta)%n+n)%n]
	if err := r.res.Select(level, next); err != nil {
		return "", err
	}
	return r.res.Selected(level), nil
}
