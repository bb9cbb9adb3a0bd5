// Package resolver 实现目标解析协议
//
// 目标是三级引用：容器 -> 组件 -> 数值参数。每一级的选择都会清空下级。
// 查询不到的组件或参数进入 Missing 状态并加入待解析队列，
// 由 Poll 按固定间隔重试；容器只有在恢复存档时才允许延迟解析。
package resolver

import (
	"errors"
	"fmt"
	"log"
	"reflect"

	"github.com/decker502/floatrand/pkg/directory"
	"github.com/decker502/floatrand/pkg/params"
)

// ErrDirectoryInconsistency 显式选择的容器在目录中不存在
var ErrDirectoryInconsistency = errors.New("directory inconsistency")

// DefaultPollInterval 默认重试间隔（秒）
const DefaultPollInterval = 0.5

// Level 引用层级
type Level int

const (
	// LevelContainer 容器
	LevelContainer Level = iota
	// LevelComponent 组件
	LevelComponent
	// LevelParameter 数值参数
	LevelParameter

	levelCount = 3
)

// Levels 所有层级（从上到下）
func Levels() []Level {
	return []Level{LevelContainer, LevelComponent, LevelParameter}
}

// String 返回层级名称
func (l Level) String() string {
	switch l {
	case LevelContainer:
		return "container"
	case LevelComponent:
		return "component"
	case LevelParameter:
		return "parameter"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// LevelState 层级解析状态
type LevelState int

const (
	// Unselected 未选择
	Unselected LevelState = iota
	// Resolving 正在解析
	Resolving
	// Resolved 已解析
	Resolved
	// Missing 已选择但目录中暂不存在，等待重试
	Missing
)

// String 返回状态名称
func (s LevelState) String() string {
	switch s {
	case Unselected:
		return "unselected"
	case Resolving:
		return "resolving"
	case Resolved:
		return "resolved"
	case Missing:
		return "missing"
	default:
		return fmt.Sprintf("LevelState(%d)", int(s))
	}
}

// Reference 三级目标引用（空字符串表示未选择）
type Reference struct {
	ContainerID   string
	ComponentID   string
	ParameterName string
}

// id 返回指定层级的ID
func (r Reference) id(level Level) string {
	switch level {
	case LevelContainer:
		return r.ContainerID
	case LevelComponent:
		return r.ComponentID
	default:
		return r.ParameterName
	}
}

// BindFunc 参数绑定回调
//
// mirror 为 false 表示恢复存档期间绑定，不应覆盖已恢复的上下界。
type BindFunc func(p directory.NumericParameter, mirror bool)

// pendingEntry 待解析队列条目
type pendingEntry struct {
	level Level
	id    string
	// fromRestore 条目在恢复存档期间产生，解析时不镜像值
	fromRestore bool
}

// Resolver 目标解析器
//
// 单线程使用：所有方法都应在 tick 循环中调用。
type Resolver struct {
	dir directory.Directory

	ids    [levelCount]string
	states [levelCount]LevelState

	// 按层级排序，每个层级最多一条
	pending []pendingEntry

	// 弱引用：目录拥有参数本身
	target directory.NumericParameter

	pollInterval  float64
	sinceLastPoll float64
	restoring     bool
	binds         int

	onBound   BindFunc
	onUnbound func()

	unsubscribe func()
}

// New 创建解析器
//
// 如果 dir 同时实现 directory.Notifier，会订阅容器改名和删除事件，
// 需要调用 Close 取消订阅。
//
// 参数：
//   - dir: 目录
//   - pollInterval: 重试间隔（秒），<= 0 时使用 DefaultPollInterval
func New(dir directory.Directory, pollInterval float64) *Resolver {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	r := &Resolver{
		dir:          dir,
		pollInterval: pollInterval,
	}
	if n, ok := dir.(directory.Notifier); ok {
		r.unsubscribe = n.Subscribe(r.handleEvent)
	}
	return r
}

// Close 取消目录事件订阅
func (r *Resolver) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
}

// OnBound 设置参数绑定回调
func (r *Resolver) OnBound(fn BindFunc) {
	r.onBound = fn
}

// OnUnbound 设置参数解绑回调
func (r *Resolver) OnUnbound(fn func()) {
	r.onUnbound = fn
}

// PollInterval 重试间隔（秒）
func (r *Resolver) PollInterval() float64 {
	return r.pollInterval
}

// State 指定层级的解析状态
func (r *Resolver) State(level Level) LevelState {
	return r.states[level]
}

// Selected 指定层级当前选择的ID（包括尚未解析的）
func (r *Resolver) Selected(level Level) string {
	return r.ids[level]
}

// Reference 当前引用（用于持久化，包括 Missing 的层级）
func (r *Resolver) Reference() Reference {
	return Reference{
		ContainerID:   r.ids[LevelContainer],
		ComponentID:   r.ids[LevelComponent],
		ParameterName: r.ids[LevelParameter],
	}
}

// Target 当前绑定的参数
func (r *Resolver) Target() (directory.NumericParameter, bool) {
	return r.target, r.target != nil
}

// Binds 参数绑定次数
func (r *Resolver) Binds() int {
	return r.binds
}

// Restoring 是否正在恢复存档
func (r *Resolver) Restoring() bool {
	return r.restoring
}

// PendingLevels 待解析队列中的层级
func (r *Resolver) PendingLevels() []Level {
	levels := make([]Level, 0, len(r.pending))
	for _, e := range r.pending {
		levels = append(levels, e.level)
	}
	return levels
}

// Write 向绑定的参数写入值
//
// 返回：
//   - bool: 未绑定时返回 false，不写入
func (r *Resolver) Write(value float64) bool {
	if r.target == nil {
		return false
	}
	r.target.SetValue(value)
	return true
}

// SelectContainer 选择容器，清空组件和参数
//
// 容器不允许延迟解析：显式选择不存在的容器会记录错误，
// 回退为未选择并返回 ErrDirectoryInconsistency。
// 恢复存档期间不存在的容器进入 Missing 状态等待重试。
func (r *Resolver) SelectContainer(id string) error {
	r.clearFrom(LevelContainer)
	id = params.Normalize(id)
	if id == "" {
		return nil
	}

	r.ids[LevelContainer] = id
	r.states[LevelContainer] = Resolving
	if r.containerExists(id) {
		r.states[LevelContainer] = Resolved
		log.Printf("[Resolver] Container %q resolved", id)
		return nil
	}

	if r.restoring {
		r.markMissing(LevelContainer, id, true)
		return nil
	}

	r.ids[LevelContainer] = ""
	r.states[LevelContainer] = Unselected
	log.Printf("[Resolver] ERROR: container %q not found in directory", id)
	return fmt.Errorf("select container %q: %w", id, ErrDirectoryInconsistency)
}

// SelectComponent 选择组件，清空参数
// 组件不存在时进入 Missing 状态，不是错误
func (r *Resolver) SelectComponent(id string) {
	r.clearFrom(LevelComponent)
	id = params.Normalize(id)
	if id == "" {
		return
	}

	r.ids[LevelComponent] = id
	r.states[LevelComponent] = Resolving
	if r.tryResolve(LevelComponent, id) {
		r.states[LevelComponent] = Resolved
		log.Printf("[Resolver] Component %q resolved", id)
		return
	}
	r.markMissing(LevelComponent, id, r.restoring)
}

// SelectParameter 选择数值参数
// 参数不存在时进入 Missing 状态，不是错误
func (r *Resolver) SelectParameter(name string) {
	r.clearFrom(LevelParameter)
	name = params.Normalize(name)
	if name == "" {
		return
	}

	r.ids[LevelParameter] = name
	r.states[LevelParameter] = Resolving
	if r.tryResolve(LevelParameter, name) {
		r.bind(!r.restoring)
		return
	}
	r.markMissing(LevelParameter, name, r.restoring)
}

// Select 按层级选择
func (r *Resolver) Select(level Level, id string) error {
	switch level {
	case LevelContainer:
		return r.SelectContainer(id)
	case LevelComponent:
		r.SelectComponent(id)
	case LevelParameter:
		r.SelectParameter(id)
	default:
		return fmt.Errorf("unknown level %d", int(level))
	}
	return nil
}

// Restore 按容器、组件、参数的顺序恢复引用
//
// 恢复期间绑定的参数不镜像值；不存在的层级（包括容器）进入 Missing，
// 之后由 Poll 解析时同样不镜像值。
func (r *Resolver) Restore(ref Reference) {
	r.restoring = true
	defer func() { r.restoring = false }()

	log.Printf("[Resolver] Restoring reference %q/%q/%q", ref.ContainerID, ref.ComponentID, ref.ParameterName)

	// 每一级依赖上一级的结果，必须严格按顺序
	for _, level := range Levels() {
		if err := r.Select(level, ref.id(level)); err != nil {
			log.Printf("[Resolver] Warning: restore %s: %v", level, err)
		}
	}
}

// Poll 累积时间，到达重试间隔时调用 Retry
//
// 返回：
//   - bool: 本次是否执行了重试
func (r *Resolver) Poll(deltaTime float64) bool {
	if deltaTime > 0 {
		r.sinceLastPoll += deltaTime
	}
	if r.sinceLastPoll < r.pollInterval {
		return false
	}
	r.sinceLastPoll = 0
	r.Retry()
	return true
}

// Retry 立即重试所有待解析的层级
//
// 先检查已解析的层级是否仍然存在（目标可能被宿主卸载），
// 然后按层级顺序解析队列：上级解析成功后下级在同一次重试中继续解析。
func (r *Resolver) Retry() {
	r.revalidate()

	if len(r.pending) == 0 {
		return
	}

	remaining := make([]pendingEntry, 0, len(r.pending))
	for _, e := range r.pending {
		if e.level > LevelContainer && r.states[e.level-1] != Resolved {
			remaining = append(remaining, e)
			continue
		}
		if !r.tryResolve(e.level, e.id) {
			remaining = append(remaining, e)
			continue
		}

		log.Printf("[Resolver] Pending %s %q resolved", e.level, e.id)
		if e.level == LevelParameter {
			r.bind(!e.fromRestore && !r.restoring)
		} else {
			r.states[e.level] = Resolved
		}
	}
	r.pending = remaining
}

// Choices 指定层级的可选项，第一项为 "None"
//
// 上级未选择或不存在时只返回 "None"。
func (r *Resolver) Choices(level Level) []string {
	choices := []string{params.None}

	var ids []string
	switch level {
	case LevelContainer:
		ids = r.dir.ListContainers()
	case LevelComponent:
		if container := r.ids[LevelContainer]; container != "" {
			ids, _ = r.dir.ListComponents(container)
		}
	case LevelParameter:
		container, component := r.ids[LevelContainer], r.ids[LevelComponent]
		if container != "" && component != "" {
			ids, _ = r.dir.ListNumericParameters(container, component)
		}
	}
	return append(choices, ids...)
}

// Clear 清空所有层级
func (r *Resolver) Clear() {
	r.clearFrom(LevelContainer)
}

// containerExists 容器是否存在
func (r *Resolver) containerExists(id string) bool {
	_, ok := r.dir.ListComponents(id)
	return ok
}

// tryResolve 在目录中查找指定层级，参数层级找到时记录为目标
// 上级未解析时直接返回 false
func (r *Resolver) tryResolve(level Level, id string) bool {
	switch level {
	case LevelContainer:
		return r.containerExists(id)
	case LevelComponent:
		if r.states[LevelContainer] != Resolved {
			return false
		}
		_, ok := r.dir.ListNumericParameters(r.ids[LevelContainer], id)
		return ok
	case LevelParameter:
		if r.states[LevelComponent] != Resolved {
			return false
		}
		p, ok := r.dir.NumericParameter(r.ids[LevelContainer], r.ids[LevelComponent], id)
		if !ok {
			return false
		}
		r.target = p
		return true
	}
	return false
}

// bind 参数层级解析成功后绑定目标
func (r *Resolver) bind(mirror bool) {
	r.states[LevelParameter] = Resolved
	r.binds++
	log.Printf("[Resolver] Bound %q/%q/%q (value=%.4f range=[%.4f, %.4f] mirror=%v)",
		r.ids[LevelContainer], r.ids[LevelComponent], r.ids[LevelParameter],
		r.target.Value(), r.target.Min(), r.target.Max(), mirror)
	if r.onBound != nil {
		r.onBound(r.target, mirror)
	}
}

// unbind 解除目标绑定
func (r *Resolver) unbind() {
	if r.target == nil {
		return
	}
	r.target = nil
	if r.onUnbound != nil {
		r.onUnbound()
	}
}

// markMissing 标记层级为 Missing 并加入待解析队列
func (r *Resolver) markMissing(level Level, id string, fromRestore bool) {
	r.states[level] = Missing
	r.dropPending(level)

	entry := pendingEntry{level: level, id: id, fromRestore: fromRestore}
	idx := len(r.pending)
	for i, e := range r.pending {
		if e.level > level {
			idx = i
			break
		}
	}
	r.pending = append(r.pending, pendingEntry{})
	copy(r.pending[idx+1:], r.pending[idx:])
	r.pending[idx] = entry

	log.Printf("[Resolver] %s %q missing, will retry every %.2fs", level, id, r.pollInterval)
}

// dropPending 从队列移除指定层级及其下级
func (r *Resolver) dropPending(from Level) {
	kept := r.pending[:0]
	for _, e := range r.pending {
		if e.level < from {
			kept = append(kept, e)
		}
	}
	r.pending = kept
}

// clearFrom 清空指定层级及其所有下级
func (r *Resolver) clearFrom(level Level) {
	for l := level; l < levelCount; l++ {
		r.ids[l] = ""
		r.states[l] = Unselected
	}
	r.dropPending(level)
	r.unbind()
}

// revalidate 检查已解析的层级是否仍在目录中
//
// 找到第一个失效的层级后，它和所有下级重新标记为 Missing（不镜像值）。
func (r *Resolver) revalidate() {
	for _, level := range Levels() {
		if r.states[level] != Resolved {
			continue
		}
		if r.stillValid(level) {
			continue
		}

		log.Printf("[Resolver] %s %q disappeared from directory", level, r.ids[level])
		r.unbind()
		for l := level; l < levelCount; l++ {
			if r.ids[l] != "" {
				r.markMissing(l, r.ids[l], true)
			}
		}
		return
	}
}

// stillValid 已解析的层级是否仍然有效
func (r *Resolver) stillValid(level Level) bool {
	switch level {
	case LevelContainer:
		return r.containerExists(r.ids[LevelContainer])
	case LevelComponent:
		_, ok := r.dir.ListNumericParameters(r.ids[LevelContainer], r.ids[LevelComponent])
		return ok
	case LevelParameter:
		p, ok := r.dir.NumericParameter(r.ids[LevelContainer], r.ids[LevelComponent], r.ids[LevelParameter])
		return ok && sameHandle(p, r.target)
	}
	return true
}

// sameHandle 两个句柄是否指向同一个参数
//
// 动态类型不同视为不同参数；动态类型不可比较（例如带切片字段的值类型）时
// 无法判断身份，只要查询成功就视为同一个。
func sameHandle(a, b directory.NumericParameter) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return va.IsValid() == vb.IsValid()
	}
	if va.Type() != vb.Type() {
		return false
	}
	if !va.Comparable() {
		return true
	}
	return a == b
}

// handleEvent 处理容器改名和删除
func (r *Resolver) handleEvent(ev directory.Event) {
	if ev.ContainerID == "" || ev.ContainerID != r.ids[LevelContainer] {
		return
	}

	switch ev.Kind {
	case directory.ContainerRenamed:
		r.ids[LevelContainer] = ev.NewID
		for i := range r.pending {
			if r.pending[i].level == LevelContainer {
				r.pending[i].id = ev.NewID
			}
		}
		log.Printf("[Resolver] Container renamed %q -> %q", ev.ContainerID, ev.NewID)
	case directory.ContainerRemoved:
		log.Printf("[Resolver] Container %q removed, clearing selection", ev.ContainerID)
		r.clearFrom(LevelContainer)
	}
}
