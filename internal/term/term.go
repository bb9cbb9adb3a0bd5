// Package term 终端版调参工具
//
// 使用 tcell 绘制：上方是字段列表，下方是一条刻度条，显示上下界、
// 当前段终点和当前值。当前值的指针用 harmonica 弹簧平滑，只影响显示，
// 写入目标的始终是调度器的原始值。
package term

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/harmonica"
	"github.com/decker502/floatrand/internal/demo"
	"github.com/decker502/floatrand/pkg/config"
	"github.com/decker502/floatrand/pkg/control"
	"github.com/decker502/floatrand/pkg/persist"
	"github.com/decker502/floatrand/pkg/randomizer"
	"github.com/gdamore/tcell/v2"
)

// 指针弹簧参数
const (
	needleFrequency = 8.0
	needleDamping   = 0.7
)

// statusDuration 状态消息显示时间（秒）
const statusDuration = 3.0

// Model 终端界面状态
type Model struct {
	cfg     *config.Config
	session *demo.Session
	rnd     *randomizer.Randomizer
	store   *persist.Store
	delta   float64

	selected control.Field
	paused   bool

	status     string
	statusTime float64

	spring    harmonica.Spring
	needle    float64
	needleVel float64
}

// NewModel 创建终端界面
//
// 参数：
//   - cfg: 应用配置
//   - store: 存档存储
//   - restore: 是否在场景就绪后恢复存档
func NewModel(cfg *config.Config, store *persist.Store, restore bool) *Model {
	session := demo.OpenSession(cfg, store, restore)
	return &Model{
		cfg:     cfg,
		session: session,
		rnd:     session.Randomizer,
		store:   store,
		delta:   cfg.TickDelta(),
		spring:  harmonica.NewSpring(harmonica.FPS(cfg.TickRate), needleFrequency, needleDamping),
		needle:  session.Randomizer.Value(),
	}
}

// Randomizer 随机器
func (m *Model) Randomizer() *randomizer.Randomizer {
	return m.rnd
}

// Selected 当前选中的字段
func (m *Model) Selected() control.Field {
	return m.selected
}

// Paused 是否暂停
func (m *Model) Paused() bool {
	return m.paused
}

// Status 当前状态消息
func (m *Model) Status() string {
	return m.status
}

// Needle 平滑后的指针位置
func (m *Model) Needle() float64 {
	return m.needle
}

// Step 推进一个 tick
func (m *Model) Step() {
	if m.statusTime > 0 {
		m.statusTime -= m.delta
		if m.statusTime <= 0 {
			m.status = ""
		}
	}

	if m.paused {
		m.session.Scene.Update(m.delta)
	} else {
		m.session.Step(m.delta)
	}
	m.needle, m.needleVel = m.spring.Update(m.needle, m.needleVel, m.rnd.Value())
}

// HandleEvent 处理终端事件
//
// 返回：
//   - bool: false 表示退出
func (m *Model) HandleEvent(ev tcell.Event) bool {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return true
	}

	switch key.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		m.save()
		return false
	case tcell.KeyUp:
		m.selected = m.selected.Prev()
	case tcell.KeyDown:
		m.selected = m.selected.Next()
	case tcell.KeyLeft:
		m.adjust(-1, key.Modifiers()&tcell.ModShift != 0)
	case tcell.KeyRight:
		m.adjust(1, key.Modifiers()&tcell.ModShift != 0)
	case tcell.KeyRune:
		return m.handleRune(key.Rune())
	}
	return true
}

func (m *Model) handleRune(r rune) bool {
	switch r {
	case 'q':
		m.save()
		return false
	case 'r':
		enabled := !m.rnd.Settings.EnableRandomness.Val()
		if err := m.rnd.SetEnableRandomness(enabled); err != nil {
			m.setStatus(err.Error())
		} else {
			m.setStatus(fmt.Sprintf("randomness %v (next rollover)", enabled))
		}
	case 'k':
		next := m.rnd.Shape.Current().Kind().Next()
		if err := m.rnd.SetCurveKind(next); err != nil {
			m.setStatus(err.Error())
		} else {
			m.setStatus("curve " + next.String())
		}
	case ' ':
		m.paused = !m.paused
	case 's':
		m.save()
	case 'l':
		m.load()
	}
	return true
}

func (m *Model) adjust(dir int, fine bool) {
	if err := control.Adjust(m.rnd, m.selected, dir, fine); err != nil {
		log.Printf("[Term] Adjust %s: %v", m.selected, err)
		m.setStatus(err.Error())
	}
}

func (m *Model) save() {
	if err := m.rnd.Save(); err != nil {
		log.Printf("[Term] Save failed: %v", err)
		m.setStatus("save failed: " + err.Error())
		return
	}
	if m.store.Persistent() {
		m.setStatus("saved")
	} else {
		m.setStatus("saved (memory only)")
	}
}

func (m *Model) load() {
	ok, err := m.rnd.Load()
	switch {
	case err != nil:
		log.Printf("[Term] Load failed: %v", err)
		m.setStatus("load failed: " + err.Error())
	case !ok:
		m.setStatus("no saved document")
	default:
		m.setStatus("loaded")
	}
}

func (m *Model) setStatus(msg string) {
	m.status = msg
	m.statusTime = statusDuration
}

// Close 释放资源
func (m *Model) Close() {
	m.session.Close()
}

// Draw 绘制到屏幕（不调用 Show）
func (m *Model) Draw(screen tcell.Screen) {
	screen.Clear()
	width, _ := screen.Size()
	r := m.rnd

	row := 0
	drawText(screen, 0, row, styleTitle, m.cfg.Window.Title)
	row++
	drawText(screen, 0, row, tcell.StyleDefault,
		fmt.Sprintf("phase: %s  ticks: %d  writes: %d", r.Phase(), r.Ticks(), r.Writes()))
	row += 2

	for f := control.Field(0); f < control.FieldCount; f++ {
		style, cursor := tcell.StyleDefault, "  "
		if f == m.selected {
			style, cursor = styleSelected, "> "
		}
		drawText(screen, 0, row, style, fmt.Sprintf("%s%-10s %s", cursor, f, control.Value(r, f)))
		row++
	}
	row++

	shape := r.Shape.Current()
	drawText(screen, 0, row, tcell.StyleDefault,
		fmt.Sprintf("mode: %s  curve: %s (exp %.2f)", r.Scheduler().Mode(), shape.Kind(), shape.Exponent()))
	row++
	drawText(screen, 0, row, tcell.StyleDefault,
		fmt.Sprintf("value: %.4f  target: %.4f  rollovers: %d", r.Value(), r.TargetValue(), r.Scheduler().Rollovers()))
	row += 2

	m.drawGauge(screen, row, width)
	row += 3

	if m.paused {
		drawText(screen, 0, row, styleWarning, "PAUSED")
		row++
	}
	if err := r.LastError(); err != nil {
		drawText(screen, 0, row, styleWarning, "last error: "+err.Error())
		row++
	}
	if m.status != "" {
		drawText(screen, 0, row, tcell.StyleDefault, m.status)
		row++
	}
	row++
	drawText(screen, 0, row, styleHelp, "Up/Down select  Left/Right adjust (Shift fine)")
	drawText(screen, 0, row+1, styleHelp, "r randomness  k curve  space pause  s save  l load  q quit")
}

// drawGauge 刻度条：[ ] 为上下界，◆ 为当前段终点，█ 为平滑后的当前值
func (m *Model) drawGauge(screen tcell.Screen, row, width int) {
	const margin = 2
	span := width - 2*margin
	if span < 4 {
		return
	}

	s := m.rnd.Settings
	lo, hi := s.Lower.Min(), s.Lower.Max()
	col := func(v float64) int {
		if hi-lo <= 0 {
			return margin
		}
		t := min(max((v-lo)/(hi-lo), 0), 1)
		return margin + int(t*float64(span-1)+0.5)
	}

	for x := margin; x < margin+span; x++ {
		screen.SetContent(x, row, '─', nil, styleTrack)
	}
	screen.SetContent(col(s.Lower.Val()), row, '[', nil, styleBounds)
	screen.SetContent(col(s.Upper.Val()), row, ']', nil, styleBounds)
	screen.SetContent(col(m.rnd.TargetValue()), row, '◆', nil, styleTarget)
	screen.SetContent(col(m.needle), row, '█', nil, styleValue)

	drawText(screen, margin, row+1, styleHelp, fmt.Sprintf("%.2f", lo))
	hiLabel := fmt.Sprintf("%.2f", hi)
	drawText(screen, margin+span-len(hiLabel), row+1, styleHelp, hiLabel)
}

var (
	styleTitle    = tcell.StyleDefault.Bold(true)
	styleSelected = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleWarning  = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleHelp     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleTrack    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleBounds   = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	styleTarget   = tcell.StyleDefault.Foreground(tcell.ColorOrange)
	styleValue    = tcell.StyleDefault.Foreground(tcell.ColorGreen)
)

// drawText 从 (x, y) 开始写一行文字
func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range []rune(strings.TrimRight(text, " ")) {
		screen.SetContent(x+i, y, r, nil, style)
	}
}

// Run 运行事件循环，直到用户退出或超过 duration（0 表示不限时）
//
// 调用方负责 screen.Init 和 screen.Fini。
func Run(screen tcell.Screen, m *Model, duration time.Duration) {
	ticker := time.NewTicker(time.Duration(float64(time.Second) * m.delta))
	defer ticker.Stop()

	var deadline <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		deadline = timer.C
	}

	events := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()
	defer close(quit)

	for {
		select {
		case ev := <-events:
			if _, ok := ev.(*tcell.EventResize); ok {
				screen.Sync()
				continue
			}
			if !m.HandleEvent(ev) {
				return
			}

		case <-ticker.C:
			m.Step()
			m.Draw(screen)
			screen.Show()

		case <-deadline:
			log.Printf("[Term] Duration %v elapsed, exiting", duration)
			m.save()
			return
		}
	}
}
