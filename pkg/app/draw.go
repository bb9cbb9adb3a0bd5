package app

import (
	"fmt"
	"image/color"

	"github.com/decker502/floatrand/pkg/control"
	"github.com/decker502/floatrand/pkg/randomizer"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// 布局常量
const (
	panelX      = 16
	panelY      = 16
	lineHeight  = 16
	plotLeft    = 320
	plotTop     = 24
	plotMargin  = 24
	previewSize = 120
)

var (
	colorBackground = color.RGBA{R: 24, G: 26, B: 32, A: 255}
	colorFrame      = color.RGBA{R: 80, G: 84, B: 96, A: 255}
	colorValue      = color.RGBA{R: 120, G: 220, B: 140, A: 255}
	colorTarget     = color.RGBA{R: 240, G: 180, B: 60, A: 255}
	colorBounds     = color.RGBA{R: 90, G: 120, B: 200, A: 255}
	colorCurve      = color.RGBA{R: 220, G: 120, B: 200, A: 255}
	colorRollover   = color.RGBA{R: 60, G: 64, B: 76, A: 255}
)

// Draw 绘制画面
func (a *App) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)
	a.drawPanel(screen)
	a.drawPlot(screen)
	a.drawCurvePreview(screen)
}

// drawPanel 左侧文字面板
func (a *App) drawPanel(screen *ebiten.Image) {
	r := a.rnd
	lines := []string{
		a.cfg.Window.Title,
		fmt.Sprintf("phase: %s  ticks: %d  writes: %d", r.Phase(), r.Ticks(), r.Writes()),
		"",
	}
	for f := control.Field(0); f < control.FieldCount; f++ {
		cursor := "  "
		if f == a.selected {
			cursor = "> "
		}
		lines = append(lines, fmt.Sprintf("%s%-10s %s", cursor, f, control.Value(r, f)))
	}

	shape := r.Shape.Current()
	lines = append(lines,
		"",
		fmt.Sprintf("mode: %s  rollovers: %d", r.Scheduler().Mode(), r.Scheduler().Rollovers()),
		fmt.Sprintf("curve: %s (exp %.2f)", shape.Kind(), shape.Exponent()),
		fmt.Sprintf("value: %.4f", r.Value()),
		fmt.Sprintf("target: %.4f", r.TargetValue()),
		fmt.Sprintf("scene: %.1fs  pending loads: %d", a.session.Scene.Elapsed(), a.session.Scene.Pending()),
	)
	if a.paused {
		lines = append(lines, "PAUSED")
	}
	if err := r.LastError(); err != nil {
		lines = append(lines, "last error: "+err.Error())
	}
	if a.status != "" {
		lines = append(lines, "", a.status)
	}
	lines = append(lines,
		"",
		"Up/Down select  Left/Right adjust (Shift fine)",
		"R randomness  K curve  Space pause  C clear",
		"S save  L load  F11 fullscreen  Esc quit",
	)

	for i, line := range lines {
		ebitenutil.DebugPrintAt(screen, line, panelX, panelY+i*lineHeight)
	}
}

// plotRect 曲线图区域
func (a *App) plotRect() (x, y, w, h float32) {
	x = plotLeft
	y = plotTop
	w = float32(a.cfg.Window.Width) - x - plotMargin
	h = float32(a.cfg.Window.Height) - y - plotMargin - previewSize - plotMargin
	return
}

// valueRange 纵轴范围：上下界的合法范围与历史值的并集
func (a *App) valueRange() (lo, hi float64) {
	s := a.rnd.Settings
	lo, hi = s.Lower.Min(), s.Lower.Max()
	if hlo, hhi, ok := a.history.Range(); ok {
		lo, hi = min(lo, hlo), max(hi, hhi)
	}
	if hi-lo < 1e-6 {
		lo, hi = lo-0.5, hi+0.5
	}
	return lo, hi
}

// drawPlot 当前值、目标值和上下界随时间的曲线
func (a *App) drawPlot(screen *ebiten.Image) {
	x, y, w, h := a.plotRect()
	if w <= 0 || h <= 0 {
		return
	}
	strokeFrame(screen, x, y, w, h)

	n := a.history.Len()
	if n < 2 {
		return
	}
	lo, hi := a.valueRange()
	toY := func(v float64) float32 {
		return y + h - float32((v-lo)/(hi-lo))*h
	}
	step := w / float32(a.history.Cap()-1)

	for i := 1; i < n; i++ {
		prev, cur := a.history.At(i-1), a.history.At(i)
		x0, x1 := x+float32(i-1)*step, x+float32(i)*step
		if cur.Rollover {
			vector.StrokeLine(screen, x1, y, x1, y+h, 1, colorRollover, false)
		}
		vector.StrokeLine(screen, x0, toY(prev.Lower), x1, toY(cur.Lower), 1, colorBounds, false)
		vector.StrokeLine(screen, x0, toY(prev.Upper), x1, toY(cur.Upper), 1, colorBounds, false)
		vector.StrokeLine(screen, x0, toY(prev.Target), x1, toY(cur.Target), 1, colorTarget, false)
		vector.StrokeLine(screen, x0, toY(prev.Value), x1, toY(cur.Value), 2, colorValue, true)
	}

	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%.2f", hi), int(x)+4, int(y)+2)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%.2f", lo), int(x)+4, int(y+h)-18)
}

// drawCurvePreview 当前曲线形状的预览
func (a *App) drawCurvePreview(screen *ebiten.Image) {
	px, py, _, ph := a.plotRect()
	x := px
	y := py + ph + plotMargin
	const size = float32(previewSize)
	strokeFrame(screen, x, y, size, size)

	samples := a.rnd.Shape.Current().Sample(48)
	for i := 1; i < len(samples); i++ {
		t0 := float32(i-1) / float32(len(samples)-1)
		t1 := float32(i) / float32(len(samples)-1)
		vector.StrokeLine(screen,
			x+t0*size, y+size-float32(samples[i-1])*size,
			x+t1*size, y+size-float32(samples[i])*size,
			2, colorCurve, true)
	}

	// 当前段的进度
	progress := segmentProgress(a.rnd)
	vector.StrokeLine(screen, x+float32(progress)*size, y, x+float32(progress)*size, y+size, 1, colorTarget, false)
}

// segmentProgress 当前段的线性进度（钳制到 [0,1]）
func segmentProgress(r *randomizer.Randomizer) float64 {
	period := r.Settings.Period.Val()
	if period <= 0 {
		return 1
	}
	p := r.Scheduler().State().Accumulated * r.Settings.Quickness.Val() / period
	return min(max(p, 0), 1)
}

// strokeFrame 绘制矩形边框
func strokeFrame(screen *ebiten.Image, x, y, w, h float32) {
	vector.StrokeLine(screen, x, y, x+w, y, 1, colorFrame, false)
	vector.StrokeLine(screen, x, y+h, x+w, y+h, 1, colorFrame, false)
	vector.StrokeLine(screen, x, y, x, y+h, 1, colorFrame, false)
	vector.StrokeLine(screen, x+w, y, x+w, y+h, 1, colorFrame, false)
}
