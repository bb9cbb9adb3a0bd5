package directory

import (
	"math"
	"reflect"
	"testing"
)

// newTestMemory 创建测试目录
func newTestMemory() *Memory {
	m := NewMemory()
	m.AddParameter("Person", "geometry", "morph.smile", NewParam(0.2, 0, 1))
	m.AddParameter("Person", "geometry", "morph.blink", NewParam(0, 0, 1))
	m.AddParameter("Person", "hair", "stiffness", NewParam(1, 0, 2))
	m.AddContainer("Empty")
	return m
}

func TestListContainers(t *testing.T) {
	m := newTestMemory()
	got := m.ListContainers()
	want := []string{"Empty", "Person"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListContainers() = %v, 期望 %v", got, want)
	}
}

func TestListComponents(t *testing.T) {
	m := newTestMemory()

	got, ok := m.ListComponents("Person")
	if !ok || !reflect.DeepEqual(got, []string{"geometry", "hair"}) {
		t.Errorf("ListComponents(Person) = %v, %v", got, ok)
	}

	got, ok = m.ListComponents("Empty")
	if !ok || len(got) != 0 {
		t.Errorf("ListComponents(Empty) = %v, %v, 期望空列表且存在", got, ok)
	}

	if _, ok := m.ListComponents("Ghost"); ok {
		t.Error("不存在的容器应返回 ok=false")
	}
}

func TestListNumericParameters(t *testing.T) {
	m := newTestMemory()

	got, ok := m.ListNumericParameters("Person", "geometry")
	if !ok || !reflect.DeepEqual(got, []string{"morph.blink", "morph.smile"}) {
		t.Errorf("ListNumericParameters = %v, %v", got, ok)
	}
	if _, ok := m.ListNumericParameters("Person", "skin"); ok {
		t.Error("不存在的组件应返回 ok=false")
	}
	if _, ok := m.ListNumericParameters("Ghost", "geometry"); ok {
		t.Error("不存在的容器应返回 ok=false")
	}
}

func TestNumericParameter(t *testing.T) {
	m := newTestMemory()

	p, ok := m.NumericParameter("Person", "hair", "stiffness")
	if !ok {
		t.Fatal("期望找到参数")
	}
	if p.Value() != 1 || p.Min() != 0 || p.Max() != 2 {
		t.Errorf("参数 = %v [%v,%v]", p.Value(), p.Min(), p.Max())
	}

	// 写入钳制到范围
	p.SetValue(5)
	if p.Value() != 2 {
		t.Errorf("SetValue(5) -> %v, 期望钳制为 2", p.Value())
	}

	// 非有限值被忽略
	p.SetValue(math.NaN())
	if p.Value() != 2 {
		t.Errorf("SetValue(NaN) -> %v, 期望保持 2", p.Value())
	}
	if got := NewParam(math.Inf(1), 0, 1).Value(); got != 0 {
		t.Errorf("NewParam(+Inf).Value() = %v, 期望 0", got)
	}

	if _, ok := m.NumericParameter("Person", "hair", "length"); ok {
		t.Error("不存在的参数应返回 ok=false")
	}
}

func TestRemoveComponent(t *testing.T) {
	m := newTestMemory()
	m.RemoveComponent("Person", "hair")
	if _, ok := m.ListNumericParameters("Person", "hair"); ok {
		t.Error("组件删除后不应再能查询")
	}
	m.RemoveComponent("Ghost", "hair") // 不应 panic
}

func TestRenameContainer_PublishesEvent(t *testing.T) {
	m := newTestMemory()
	var events []Event
	m.Subscribe(func(ev Event) { events = append(events, ev) })

	if err := m.RenameContainer("Person", "Person#2"); err != nil {
		t.Fatalf("RenameContainer error: %v", err)
	}
	if _, ok := m.ListComponents("Person"); ok {
		t.Error("旧ID不应再存在")
	}
	if _, ok := m.NumericParameter("Person#2", "geometry", "morph.smile"); !ok {
		t.Error("新ID下应保留原有组件")
	}

	want := []Event{{Kind: ContainerRenamed, ContainerID: "Person", NewID: "Person#2"}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %+v, 期望 %+v", events, want)
	}

	if err := m.RenameContainer("Ghost", "X"); err == nil {
		t.Error("改名不存在的容器应返回错误")
	}
	if err := m.RenameContainer("Empty", "Person#2"); err == nil {
		t.Error("改名为已存在的ID应返回错误")
	}
}

func TestRemoveContainer_PublishesEvent(t *testing.T) {
	m := newTestMemory()
	var events []Event
	unsubscribe := m.Subscribe(func(ev Event) { events = append(events, ev) })

	m.RemoveContainer("Person")
	m.RemoveContainer("Person") // 重复删除不发事件

	if len(events) != 1 || events[0].Kind != ContainerRemoved || events[0].ContainerID != "Person" {
		t.Errorf("events = %+v", events)
	}

	unsubscribe()
	m.RemoveContainer("Empty")
	if len(events) != 1 {
		t.Error("取消订阅后不应再收到事件")
	}
}

func TestSubscribe_Order(t *testing.T) {
	m := newTestMemory()
	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		m.Subscribe(func(Event) { order = append(order, i) })
	}
	m.RemoveContainer("Empty")
	if !reflect.DeepEqual(order, []int{1, 2, 3}) {
		t.Errorf("分发顺序 = %v, 期望 [1 2 3]", order)
	}
}

func TestEventKindString(t *testing.T) {
	if ContainerRenamed.String() != "renamed" || ContainerRemoved.String() != "removed" {
		t.Error("EventKind.String() 不正确")
	}
	if EventKind(9).String() != "unknown" {
		t.Error("未知事件类型应返回 unknown")
	}
}
