package main

import (
	"embed"
	"log"

	"github.com/wailsapp/wails/v3/pkg/application"
	"github.com/wailsapp/wails/v3/pkg/events"

	"github.com/zoeyai/cursorwatch/internal/logger"
)

//go:embed frontend/*
var assets embed.FS

func main() {
	// 创建服务实例
	mouseService := NewMouseService()

	// 创建 Wails v3 应用
	app := application.New(application.Options{
		Name:        "Cursor Watch",
		Description: "鼠标状态与点击元素尺寸采集",
		// Wails 日志与应用日志共用同一控制台与日志文件
		Logger: logger.Default().Slog(),
		Services: []application.Service{
			application.NewService(mouseService),
		},
		Assets: application.AssetOptions{
			Handler: application.AssetFileServerFS(assets),
		},
		Mac: application.MacOptions{
			ApplicationShouldTerminateAfterLastWindowClosed: true,
		},
	})

	// 创建主窗口
	window := app.Window.NewWithOptions(application.WebviewWindowOptions{
		Title:            "Cursor Watch",
		Width:            420,
		Height:           360,
		MinWidth:         360,
		MinHeight:        300,
		BackgroundColour: application.NewRGB(255, 255, 255),
		URL:              "/frontend/index.html",
	})

	// 窗口关闭时退出应用，采样循环在 ServiceShutdown 中停止
	window.OnWindowEvent(events.Common.WindowClosing, func(e *application.WindowEvent) {
		app.Quit()
	})

	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
