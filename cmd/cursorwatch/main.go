package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/zoeyai/cursorwatch/internal/bootstrap"
	"github.com/zoeyai/cursorwatch/internal/logger"
	"github.com/zoeyai/cursorwatch/pkg/config"
	"github.com/zoeyai/cursorwatch/pkg/permissions"
	"github.com/zoeyai/cursorwatch/pkg/tracker"
)

// flagValues 与配置相关的命令行参数
type flagValues struct {
	interval    int
	strictFirst bool
	noInspector bool
	logLevel    string
	logFile     string
}

// applyFlags 用显式设置过的命令行参数覆盖配置，未设置的保持配置文件中的值
func applyFlags(cfg *config.TrackerConfig, set map[string]bool, v flagValues) {
	if set["interval"] {
		cfg.PollIntervalMs = v.interval
	}
	if set["strict-first-tick"] {
		cfg.StrictFirstTick = v.strictFirst
	}
	if set["no-inspector"] {
		cfg.InspectorEnabled = !v.noInspector
	}
	if set["log-level"] {
		cfg.LogLevel = v.logLevel
	}
	if set["log-file"] {
		cfg.LogFile = v.logFile
	}
	cfg.Normalize()
}

// 版本信息 (可通过 ldflags 注入)
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// 命令行参数
	var (
		interval    = flag.Int("interval", 0, "采样周期，毫秒 (默认 10)")
		strictFirst = flag.Bool("strict-first-tick", false, "首次采样不触发按下边沿")
		noInspector = flag.Bool("no-inspector", false, "禁用点击时的元素尺寸查询")
		logLevel    = flag.String("log-level", "", "日志级别 (debug/info/warn/error)")
		logFile     = flag.String("log-file", "", "日志文件路径")
		quiet       = flag.Bool("quiet", false, "不输出状态变化")
		saveConfig  = flag.Bool("save", false, "保存配置到本地")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)

	flag.Parse()

	// stdout 只输出状态 JSON，日志走 stderr
	logger.Default().SetOutput(os.Stderr)

	if *showVersion {
		printVersion()
		return
	}

	if *showHelp {
		printHelp()
		return
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		logger.Warn("加载配置失败: %v", err)
	}

	// 命令行参数优先级高于配置文件
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	applyFlags(cfg, set, flagValues{
		interval:    *interval,
		strictFirst: *strictFirst,
		noInspector: *noInspector,
		logLevel:    *logLevel,
		logFile:     *logFile,
	})

	if err := bootstrap.ApplyLogging(cfg); err != nil {
		logger.Warn("%v", err)
	}
	defer logger.Default().Close()

	if *saveConfig {
		if err := config.Save(cfg); err != nil {
			logger.Warn("保存配置失败: %v", err)
		} else {
			logger.Info("配置已保存到 %s", config.GetDefaultManager().GetConfigFile())
		}
	}

	fmt.Fprintln(os.Stderr, "========================================")
	fmt.Fprintf(os.Stderr, "  Cursor Watch v%s\n", Version)
	fmt.Fprintln(os.Stderr, "========================================")

	if runtime.GOOS == "darwin" {
		checkMacOSPermissions()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := bootstrap.Start(ctx, cfg)
	caps := session.Capabilities
	logger.Info("平台: %s (%s) 按钮来源: %s 元素查询: %v",
		caps.Platform, caps.OSVersion, caps.ButtonSource, caps.InspectorEnabled)
	logger.Info("按 Ctrl+C 退出")

	if !*quiet {
		printChanges(ctx, os.Stdout, session.Tracker, cfg.PollInterval())
	} else {
		<-ctx.Done()
	}

	fmt.Fprintln(os.Stderr)
	logger.Info("正在停止采样...")
	session.Stop()

	stats := session.Tracker.Stats()
	logger.Info("采样 %d 次，变化 %d 次，按下 %d 次，元素命中 %d 次",
		stats.Samples, stats.Changes, stats.Edges, stats.InspectorHits)
}

// printChanges 以采样周期读取状态，变化时向 w 输出一行 JSON
func printChanges(ctx context.Context, w io.Writer, acc tracker.Accessor, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last []byte
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		state, err := acc.GetState()
		if err != nil {
			logger.Error("读取状态失败: %v", err)
			return
		}

		data, err := json.Marshal(state)
		if err != nil {
			logger.Error("序列化状态失败: %v", err)
			continue
		}
		if string(data) == string(last) {
			continue
		}
		last = data
		fmt.Fprintln(w, string(data))
	}
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("Cursor Watch v%s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("Cursor Watch - 鼠标状态与点击元素尺寸采集")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  cursorwatch [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  # 以 16ms 周期采样并保存配置")
	fmt.Println("  cursorwatch -interval 16 -save")
	fmt.Println()
	fmt.Printf("配置文件位置: %s\n", config.GetDefaultManager().GetConfigFile())
}

// checkMacOSPermissions 检查 macOS 权限
func checkMacOSPermissions() {
	ok, msg := permissions.EnsurePermissions()
	if ok {
		logger.Info("✓ 辅助功能权限已授予")
		return
	}

	logger.Warn("========== 缺少权限 ==========")
	logger.Warn("%s", msg)
	permissions.RequestAccessibilityPermission()
}
