// Package app 提供可视化调参工具的 ebiten 宿主
//
// App 实现 ebiten.Game：每个 tick 推进演示场景和随机器，
// 并把当前值记录到曲线图。键盘用于选择和调节字段。
package app

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"log"

	"github.com/decker502/floatrand/internal/demo"
	"github.com/decker502/floatrand/pkg/config"
	"github.com/decker502/floatrand/pkg/control"
	"github.com/decker502/floatrand/pkg/persist"
	"github.com/decker502/floatrand/pkg/randomizer"
	"github.com/decker502/floatrand/pkg/scheduler"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// ConfigPath 配置文件路径，为空使用默认配置
	ConfigPath string
	// Fresh 忽略已保存的存档
	Fresh bool
}

// statusDuration 状态消息显示时间（秒）
const statusDuration = 3.0

// App 调参工具，实现 ebiten.Game 接口
type App struct {
	cfg     *config.Config
	session *demo.Session
	rnd     *randomizer.Randomizer
	store   *persist.Store
	history *History
	input   KeyInput

	delta    float64
	selected control.Field
	paused   bool
	rolled   bool

	status     string
	statusTime float64

	verbose bool
}

// NewApp 创建应用
//
// 加载配置、打开 gdata 存储，有存档时在宿主就绪后恢复。
func NewApp(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	appCfg, err := config.LoadWithEnv(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("配置加载失败: %w", err)
	}
	log.Printf("[Config] Loaded config %q (tick rate %d)", cfg.ConfigPath, appCfg.TickRate)

	store := persist.OpenStore(appCfg.AppName)
	a := newApp(appCfg, store, &ebitenKeyInput{}, !cfg.Fresh)
	a.verbose = cfg.Verbose
	return a, nil
}

// NewAppWithInput 创建带自定义输入和存储的应用（用于测试）
func NewAppWithInput(cfg *config.Config, store *persist.Store, input KeyInput) *App {
	return newApp(cfg, store, input, true)
}

func newApp(cfg *config.Config, store *persist.Store, input KeyInput, restore bool) *App {
	session := demo.OpenSession(cfg, store, restore)
	a := &App{
		cfg:     cfg,
		session: session,
		rnd:     session.Randomizer,
		store:   store,
		history: NewHistory(cfg.Window.History),
		input:   input,
		delta:   cfg.TickDelta(),
	}

	// 翻转在曲线图上画竖线标记
	a.rnd.Scheduler().OnRollover = func(scheduler.State) {
		a.rolled = true
	}
	// 一个界被另一个带动时在状态栏提示
	a.rnd.Settings.OnBoundsChange(func(lower, upper float64) {
		a.setStatus(fmt.Sprintf("bounds [%.3f, %.3f]", lower, upper))
	})
	return a
}

// Config 应用配置
func (a *App) Config() *config.Config {
	return a.cfg
}

// Randomizer 随机器
func (a *App) Randomizer() *randomizer.Randomizer {
	return a.rnd
}

// History 曲线图采样
func (a *App) History() *History {
	return a.history
}

// Selected 当前选中的字段
func (a *App) Selected() control.Field {
	return a.selected
}

// Paused 是否暂停
func (a *App) Paused() bool {
	return a.paused
}

// Status 当前状态消息
func (a *App) Status() string {
	return a.status
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}

// Update 更新逻辑
// 每个 tick 调用一次
func (a *App) Update() error {
	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}

	if err := a.HandleInput(); err != nil {
		return err
	}
	a.Step(a.delta)
	return nil
}

// Step 推进场景和随机器
func (a *App) Step(deltaTime float64) {
	if a.statusTime > 0 {
		a.statusTime -= deltaTime
		if a.statusTime <= 0 {
			a.status = ""
		}
	}

	if a.paused {
		a.session.Scene.Update(deltaTime)
		return
	}
	a.rolled = false
	if !a.session.Step(deltaTime) {
		return
	}

	s := a.rnd.Settings
	a.history.Push(Sample{
		Value:    a.rnd.Value(),
		Target:   a.rnd.TargetValue(),
		Lower:    s.Lower.Val(),
		Upper:    s.Upper.Val(),
		Rollover: a.rolled,
	})
}

// HandleInput 处理键盘输入
//
// 返回：
//   - error: 按 Escape 时返回 ebiten.Termination
func (a *App) HandleInput() error {
	in := a.input

	if in.IsKeyJustPressed(ebiten.KeyEscape) {
		a.save()
		return ebiten.Termination
	}

	if repeated(in, ebiten.KeyArrowUp) {
		a.selected = a.selected.Prev()
	}
	if repeated(in, ebiten.KeyArrowDown) {
		a.selected = a.selected.Next()
	}

	fine := in.IsKeyPressed(ebiten.KeyShift)
	if repeated(in, ebiten.KeyArrowRight) {
		a.adjust(1, fine)
	}
	if repeated(in, ebiten.KeyArrowLeft) {
		a.adjust(-1, fine)
	}

	if in.IsKeyJustPressed(ebiten.KeyR) {
		enabled := !a.rnd.Settings.EnableRandomness.Val()
		if err := a.rnd.SetEnableRandomness(enabled); err != nil {
			a.setStatus(err.Error())
		} else {
			a.setStatus(fmt.Sprintf("randomness %v (next rollover)", enabled))
		}
	}
	if in.IsKeyJustPressed(ebiten.KeyK) {
		next := a.rnd.Shape.Current().Kind().Next()
		if err := a.rnd.SetCurveKind(next); err != nil {
			a.setStatus(err.Error())
		} else {
			a.setStatus("curve " + next.String())
		}
	}
	if in.IsKeyJustPressed(ebiten.KeySpace) {
		a.paused = !a.paused
	}
	if in.IsKeyJustPressed(ebiten.KeyC) {
		a.history.Clear()
	}
	if in.IsKeyJustPressed(ebiten.KeyS) {
		a.save()
	}
	if in.IsKeyJustPressed(ebiten.KeyL) {
		a.load()
	}
	return nil
}

// adjust 调节当前字段
func (a *App) adjust(dir int, fine bool) {
	if err := control.Adjust(a.rnd, a.selected, dir, fine); err != nil {
		log.Printf("[App] Adjust %s: %v", a.selected, err)
		a.setStatus(err.Error())
	}
}

// save 保存存档
func (a *App) save() {
	if err := a.rnd.Save(); err != nil {
		log.Printf("[App] Save failed: %v", err)
		a.setStatus("save failed: " + err.Error())
		return
	}
	if a.store.Persistent() {
		a.setStatus("saved")
	} else {
		a.setStatus("saved (memory only)")
	}
}

// load 重新读取存档
func (a *App) load() {
	ok, err := a.rnd.Load()
	switch {
	case err != nil:
		log.Printf("[App] Load failed: %v", err)
		a.setStatus("load failed: " + err.Error())
	case !ok:
		a.setStatus("no saved document")
	default:
		a.history.Clear()
		a.setStatus("loaded")
	}
}

func (a *App) setStatus(msg string) {
	a.status = msg
	a.statusTime = statusDuration
}

// Close 释放资源
func (a *App) Close() {
	a.session.Close()
}

// Layout 返回逻辑屏幕尺寸
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return a.cfg.Window.Width, a.cfg.Window.Height
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 全屏时用黑色填充两侧
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// IsTermination 是否为正常退出
func IsTermination(err error) bool {
	return errors.Is(err, ebiten.Termination)
}
