package demo

import (
	"log"

	"github.com/decker502/floatrand/pkg/config"
	"github.com/decker502/floatrand/pkg/persist"
	"github.com/decker502/floatrand/pkg/randomizer"
)

// Session 演示场景和挂在场景上的随机器
type Session struct {
	Scene      *Scene
	Randomizer *randomizer.Randomizer
}

// OpenSession 创建演示场景和随机器
//
// 随机器使用按应用名生成的稳定ID。restore 为 true 且存储中有存档时，
// 恢复推迟到场景就绪之后；否则直接初始化。
//
// 参数：
//   - cfg: 应用配置
//   - store: 存档存储
//   - restore: 是否尝试恢复存档
func OpenSession(cfg *config.Config, store *persist.Store, restore bool) *Session {
	scene := New(DefaultHairDelay)
	rnd := randomizer.New(cfg, scene.Directory(),
		randomizer.WithStore(store),
		randomizer.WithID(persist.InstanceID(cfg.AppName)),
	)
	s := &Session{Scene: scene, Randomizer: rnd}

	if !restore {
		rnd.Init()
		return s
	}

	doc, ok, err := store.Load(rnd.ID().String())
	switch {
	case err != nil:
		log.Printf("[Demo] Warning: Failed to load document: %v (starting fresh)", err)
		rnd.Init()
	case ok:
		// 场景加载完成后才恢复引用
		rnd.ScheduleRestore(doc, scene.Ready)
	default:
		rnd.Init()
	}
	return s
}

// Step 推进场景，再推进随机器
//
// 返回：
//   - bool: 随机器本 tick 是否推进
func (s *Session) Step(deltaTime float64) bool {
	s.Scene.Update(deltaTime)
	return s.Randomizer.Tick(deltaTime)
}

// Close 释放随机器
func (s *Session) Close() {
	s.Randomizer.Close()
}
