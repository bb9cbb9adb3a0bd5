package directory

import (
	"fmt"
	"log"
	"sort"

	"github.com/decker502/floatrand/pkg/curve"
)

// Param 内存目录中的数值参数
//
// 写入值会被钳制到 [Min, Max]，与宿主参数的行为一致。
type Param struct {
	value float64
	min   float64
	max   float64
}

// NewParam 创建数值参数
func NewParam(value, min, max float64) *Param {
	if min > max {
		min, max = max, min
	}
	if !curve.IsFinite(value) {
		value = min
	}
	return &Param{value: curve.Clamp(value, min, max), min: min, max: max}
}

// Value 当前值
func (p *Param) Value() float64 { return p.value }

// SetValue 写入值（钳制到范围内，忽略 NaN 和 ±Inf）
func (p *Param) SetValue(v float64) {
	if !curve.IsFinite(v) {
		return
	}
	p.value = curve.Clamp(v, p.min, p.max)
}

// Min 范围下限
func (p *Param) Min() float64 { return p.min }

// Max 范围上限
func (p *Param) Max() float64 { return p.max }

// Memory 内存目录
//
// 容器 -> 组件 -> 参数三级映射。单线程使用，不加锁。
type Memory struct {
	// 容器ID -> 组件ID -> 参数名 -> 参数
	containers map[string]map[string]map[string]*Param
	// 订阅者：订阅ID -> 回调
	subscribers map[uint64]func(Event)
	nextSubID   uint64
}

// NewMemory 创建空的内存目录
func NewMemory() *Memory {
	return &Memory{
		containers:  make(map[string]map[string]map[string]*Param),
		subscribers: make(map[uint64]func(Event)),
		nextSubID:   1,
	}
}

// AddContainer 添加容器（已存在时不做任何事）
func (m *Memory) AddContainer(id string) {
	if _, exists := m.containers[id]; exists {
		return
	}
	m.containers[id] = make(map[string]map[string]*Param)
}

// AddComponent 向容器添加组件（容器不存在时自动创建）
func (m *Memory) AddComponent(containerID, componentID string) {
	m.AddContainer(containerID)
	comps := m.containers[containerID]
	if _, exists := comps[componentID]; exists {
		return
	}
	comps[componentID] = make(map[string]*Param)
}

// AddParameter 向组件添加数值参数（容器和组件不存在时自动创建）
func (m *Memory) AddParameter(containerID, componentID, name string, p *Param) {
	m.AddComponent(containerID, componentID)
	m.containers[containerID][componentID][name] = p
}

// RemoveComponent 删除组件
func (m *Memory) RemoveComponent(containerID, componentID string) {
	if comps, exists := m.containers[containerID]; exists {
		delete(comps, componentID)
	}
}

// RemoveContainer 删除容器并发出 ContainerRemoved 事件
func (m *Memory) RemoveContainer(id string) {
	if _, exists := m.containers[id]; !exists {
		return
	}
	delete(m.containers, id)
	m.publish(Event{Kind: ContainerRemoved, ContainerID: id})
}

// RenameContainer 容器改名并发出 ContainerRenamed 事件
func (m *Memory) RenameContainer(oldID, newID string) error {
	comps, exists := m.containers[oldID]
	if !exists {
		return fmt.Errorf("container %q not found", oldID)
	}
	if _, taken := m.containers[newID]; taken {
		return fmt.Errorf("container %q already exists", newID)
	}
	delete(m.containers, oldID)
	m.containers[newID] = comps
	m.publish(Event{Kind: ContainerRenamed, ContainerID: oldID, NewID: newID})
	return nil
}

// ListContainers 列出所有容器ID（排序）
func (m *Memory) ListContainers() []string {
	return sortedKeys(m.containers)
}

// ListComponents 列出容器内的组件ID（排序）
func (m *Memory) ListComponents(containerID string) ([]string, bool) {
	comps, exists := m.containers[containerID]
	if !exists {
		return nil, false
	}
	return sortedKeys(comps), true
}

// ListNumericParameters 列出组件的数值参数名（排序）
func (m *Memory) ListNumericParameters(containerID, componentID string) ([]string, bool) {
	comps, exists := m.containers[containerID]
	if !exists {
		return nil, false
	}
	params, exists := comps[componentID]
	if !exists {
		return nil, false
	}
	return sortedKeys(params), true
}

// NumericParameter 获取数值参数
func (m *Memory) NumericParameter(containerID, componentID, name string) (NumericParameter, bool) {
	p, ok := m.Param(containerID, componentID, name)
	if !ok {
		return nil, false
	}
	return p, true
}

// Param 获取具体类型的参数（测试和演示用）
func (m *Memory) Param(containerID, componentID, name string) (*Param, bool) {
	comps, exists := m.containers[containerID]
	if !exists {
		return nil, false
	}
	params, exists := comps[componentID]
	if !exists {
		return nil, false
	}
	p, exists := params[name]
	return p, exists
}

// Subscribe 订阅目录事件
func (m *Memory) Subscribe(fn func(Event)) func() {
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	return func() {
		delete(m.subscribers, id)
	}
}

// publish 按订阅顺序分发事件
func (m *Memory) publish(ev Event) {
	ids := make([]uint64, 0, len(m.subscribers))
	for id := range m.subscribers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	log.Printf("[Directory] container %s: %q -> %q (%d subscribers)", ev.Kind, ev.ContainerID, ev.NewID, len(ids))
	for _, id := range ids {
		if fn, ok := m.subscribers[id]; ok {
			fn(ev)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
