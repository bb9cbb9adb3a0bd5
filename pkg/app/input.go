package app

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// KeyInput 键盘输入接口
// 用于依赖注入，支持测试时 mock
type KeyInput interface {
	IsKeyJustPressed(key ebiten.Key) bool
	IsKeyPressed(key ebiten.Key) bool
	KeyPressDuration(key ebiten.Key) int
}

// ebitenKeyInput Ebitengine 默认实现
type ebitenKeyInput struct{}

func (e *ebitenKeyInput) IsKeyJustPressed(key ebiten.Key) bool {
	return inpututil.IsKeyJustPressed(key)
}

func (e *ebitenKeyInput) IsKeyPressed(key ebiten.Key) bool {
	return ebiten.IsKeyPressed(key)
}

func (e *ebitenKeyInput) KeyPressDuration(key ebiten.Key) int {
	return inpututil.KeyPressDuration(key)
}

// 按住方向键时的自动重复参数（tick）
const (
	repeatDelay    = 20
	repeatInterval = 4
)

// repeated 按键刚按下或按住达到重复间隔
func repeated(input KeyInput, key ebiten.Key) bool {
	d := input.KeyPressDuration(key)
	if d == 1 {
		return true
	}
	return d >= repeatDelay && (d-repeatDelay)%repeatInterval == 0
}
