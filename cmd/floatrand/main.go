// Package main 浮点参数随机器的可视化调参工具
//
// Usage:
//
//	go run ./cmd/floatrand [flags]
//
// Flags:
//
//	--config <path>   配置文件（.yaml 或 .toml），默认 data/floatrand.yaml
//	--fresh           忽略上次保存的存档
//	--verbose         输出详细日志
//
// Controls:
//
//	Up/Down           选择字段
//	Left/Right        调节字段或切换目标（按住 Shift 精细调节）
//	R                 切换随机/交替模式（下次翻转生效）
//	K                 切换曲线族
//	Space             暂停
//	C                 清空曲线图
//	S / L             保存 / 读取存档
//	F11               全屏
//	Escape            保存并退出
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/decker502/floatrand/pkg/app"
	"github.com/hajimehoshi/ebiten/v2"
)

var (
	configFlag  = flag.String("config", "data/floatrand.yaml", "Config file path (.yaml or .toml)")
	freshFlag   = flag.Bool("fresh", false, "Ignore the saved document")
	verboseFlag = flag.Bool("verbose", false, "Enable verbose logging (default off)")
)

func main() {
	flag.Parse()

	application, err := app.NewApp(app.Config{
		Verbose:    *verboseFlag,
		ConfigPath: *configFlag,
		Fresh:      *freshFlag,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	cfg := application.Config()
	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.TickRate)

	if err := ebiten.RunGame(application); err != nil && !app.IsTermination(err) {
		log.Printf("[Main] RunGame error: %v", err)
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// 关闭窗口时同样保存
	if err := application.Randomizer().Save(); err != nil {
		log.Printf("[Main] Save on exit failed: %v", err)
	}
	log.Println("[Main] Closed")
}
