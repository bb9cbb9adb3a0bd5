// Package main 浮点参数随机器的终端调参工具
//
// Usage:
//
//	go run ./cmd/floatrand-term [flags]
//
// Flags:
//
//	--config <path>     配置文件（.yaml 或 .toml），默认 data/floatrand.yaml
//	--fresh             忽略上次保存的存档
//	--verbose           把详细日志写入 --log 指定的文件
//	--log <path>        日志文件，默认 floatrand-term.log
//	--duration <d>      运行指定时长后保存并退出（例如 30s），0 表示不限时
//
// Controls:
//
//	Up/Down             选择字段
//	Left/Right          调节字段或切换目标（按住 Shift 精细调节）
//	r                   切换随机/交替模式（下次翻转生效）
//	k                   切换曲线族
//	space               暂停
//	s / l               保存 / 读取存档
//	q / Escape          保存并退出
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/decker502/floatrand/internal/term"
	"github.com/decker502/floatrand/pkg/config"
	"github.com/decker502/floatrand/pkg/persist"
	"github.com/gdamore/tcell/v2"
)

var (
	configFlag   = flag.String("config", "data/floatrand.yaml", "Config file path (.yaml or .toml)")
	freshFlag    = flag.Bool("fresh", false, "Ignore the saved document")
	verboseFlag  = flag.Bool("verbose", false, "Write verbose logs to the --log file")
	logFlag      = flag.String("log", "floatrand-term.log", "Log file used with --verbose")
	durationFlag = flag.Duration("duration", 0, "Exit after the given duration (0 = run until quit)")
)

func main() {
	flag.Parse()

	// 终端被 tcell 占用，日志只能写文件
	log.SetOutput(io.Discard)
	if *verboseFlag {
		f, err := os.OpenFile(*logFlag, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	cfg, err := config.LoadWithEnv(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log.Printf("[Config] Loaded config %q (tick rate %d)", *configFlag, cfg.TickRate)

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize screen: %v\n", err)
		os.Exit(1)
	}

	model := term.NewModel(cfg, persist.OpenStore(cfg.AppName), !*freshFlag)
	term.Run(screen, model, *durationFlag)

	screen.Fini()
	model.Close()
	log.Println("[Main] Closed")
}
