// Package directory 定义宿主对象目录的查询接口
//
// 目录是三级结构：容器 -> 组件 -> 数值参数。
// 组件和参数可能延迟出现（异步加载），查询不到不是错误。
package directory

// NumericParameter 数值参数句柄
//
// 目录拥有参数本身，调用方只持有弱引用，不应长期缓存。
// 宿主应返回指针句柄：参数被替换时解析器靠句柄比较发现并重新绑定，
// 不可比较的值类型句柄无法检测替换。
type NumericParameter interface {
	Value() float64
	SetValue(v float64)
	Min() float64
	Max() float64
}

// Directory 目录查询接口
type Directory interface {
	// ListContainers 列出所有容器ID
	ListContainers() []string

	// ListComponents 列出容器内的组件ID
	// 容器不存在时 ok 为 false
	ListComponents(containerID string) (ids []string, ok bool)

	// ListNumericParameters 列出组件的数值参数名
	// 容器或组件不存在时 ok 为 false
	ListNumericParameters(containerID, componentID string) (names []string, ok bool)

	// NumericParameter 获取数值参数
	// 任一级不存在时 ok 为 false
	NumericParameter(containerID, componentID, name string) (p NumericParameter, ok bool)
}

// EventKind 目录事件类型
type EventKind int

const (
	// ContainerRenamed 容器改名
	ContainerRenamed EventKind = iota
	// ContainerRemoved 容器删除
	ContainerRemoved
)

// String 返回事件类型名称
func (k EventKind) String() string {
	switch k {
	case ContainerRenamed:
		return "renamed"
	case ContainerRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event 目录事件
type Event struct {
	Kind        EventKind
	ContainerID string // 原容器ID
	NewID       string // 改名后的ID（仅 ContainerRenamed）
}

// Notifier 目录事件订阅接口
type Notifier interface {
	// Subscribe 订阅事件，返回取消订阅函数
	Subscribe(fn func(Event)) (unsubscribe func())
}
