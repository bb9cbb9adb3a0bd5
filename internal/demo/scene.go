// Package demo 提供演示用的目录场景
//
// 场景包含几个容器，部分组件在启动一段时间后才加载，
// 用来演示延迟绑定的目标。
package demo

import (
	"log"
	"sort"

	"github.com/decker502/floatrand/pkg/directory"
)

// 默认时间参数（秒）
const (
	// DefaultReadyDelay 宿主就绪前的延迟
	DefaultReadyDelay = 0.25
	// DefaultHairDelay 头发组件的加载延迟
	DefaultHairDelay = 2.0
)

// lateLoad 延迟加载的组件
type lateLoad struct {
	at        float64
	container string
	component string
	params    map[string]*directory.Param
	done      bool
}

// Scene 演示场景
type Scene struct {
	dir        *directory.Memory
	elapsed    float64
	readyDelay float64
	loads      []*lateLoad
}

// New 创建演示场景
//
// 立即可用：
//   - Person/geometry: morph.smile, morph.blink, jaw.open
//   - Light/light: intensity [0,5], hue [0,360]
//
// 延迟加载：
//   - Person/hair: stiffness [0,2], wind [0,1]（hairDelay 秒后）
func New(hairDelay float64) *Scene {
	dir := directory.NewMemory()
	dir.AddParameter("Person", "geometry", "morph.smile", directory.NewParam(0.2, 0, 1))
	dir.AddParameter("Person", "geometry", "morph.blink", directory.NewParam(0, 0, 1))
	dir.AddParameter("Person", "geometry", "jaw.open", directory.NewParam(0.1, 0, 1))
	dir.AddParameter("Light", "light", "intensity", directory.NewParam(1.5, 0, 5))
	dir.AddParameter("Light", "light", "hue", directory.NewParam(40, 0, 360))
	dir.AddContainer("Camera")

	return &Scene{
		dir:        dir,
		readyDelay: DefaultReadyDelay,
		loads: []*lateLoad{
			{
				at:        hairDelay,
				container: "Person",
				component: "hair",
				params: map[string]*directory.Param{
					"stiffness": directory.NewParam(1, 0, 2),
					"wind":      directory.NewParam(0.3, 0, 1),
				},
			},
		},
	}
}

// Directory 场景目录
func (s *Scene) Directory() *directory.Memory {
	return s.dir
}

// Elapsed 场景运行时间（秒）
func (s *Scene) Elapsed() float64 {
	return s.elapsed
}

// Ready 宿主是否就绪（用于延迟恢复存档）
func (s *Scene) Ready() bool {
	return s.elapsed >= s.readyDelay
}

// Pending 尚未加载的组件数
func (s *Scene) Pending() int {
	n := 0
	for _, l := range s.loads {
		if !l.done {
			n++
		}
	}
	return n
}

// Update 推进场景时间，加载到期的组件
func (s *Scene) Update(deltaTime float64) {
	if deltaTime > 0 {
		s.elapsed += deltaTime
	}

	for _, l := range s.loads {
		if l.done || s.elapsed < l.at {
			continue
		}
		names := make([]string, 0, len(l.params))
		for name := range l.params {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			s.dir.AddParameter(l.container, l.component, name, l.params[name])
		}
		l.done = true
		log.Printf("[Demo] Loaded %s/%s at %.2fs (%d params)", l.container, l.component, s.elapsed, len(names))
	}
}
