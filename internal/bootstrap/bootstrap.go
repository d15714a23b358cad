// Package bootstrap 将配置、日志与采样组件组装为可运行的会话
package bootstrap

import (
	"context"
	"fmt"

	"github.com/zoeyai/cursorwatch/internal/logger"
	"github.com/zoeyai/cursorwatch/pkg/config"
	"github.com/zoeyai/cursorwatch/pkg/input"
	"github.com/zoeyai/cursorwatch/pkg/platform"
	"github.com/zoeyai/cursorwatch/pkg/tracker"
	"github.com/zoeyai/cursorwatch/pkg/uia"
)

// Session 一次运行所持有的采样资源
type Session struct {
	Tracker      *tracker.Tracker
	Capabilities *platform.Capabilities

	cancel context.CancelFunc
}

// ApplyLogging 按配置设置默认 logger
func ApplyLogging(cfg *config.TrackerConfig) error {
	log := logger.Default()
	log.SetLevel(logger.ParseLevel(cfg.LogLevel))
	if cfg.LogFile != "" {
		if err := log.SetFile(true, cfg.LogFile); err != nil {
			return fmt.Errorf("设置日志文件失败: %w", err)
		}
	}
	return nil
}

// InspectorFor 按配置选择元素查询实现
func InspectorFor(cfg *config.TrackerConfig) uia.Inspector {
	if !cfg.InspectorEnabled {
		return uia.Unavailable{}
	}
	return uia.New()
}

// TrackerOptions 将配置转换为 tracker 选项
func TrackerOptions(cfg *config.TrackerConfig) []tracker.Option {
	return []tracker.Option{
		tracker.WithInterval(cfg.PollInterval()),
		tracker.WithStrictFirstTick(cfg.StrictFirstTick),
		tracker.WithLogger(logger.Default()),
	}
}

// Start 创建设备采样器并启动采样循环
func Start(ctx context.Context, cfg *config.TrackerConfig) *Session {
	probe := input.NewProbe()
	t := tracker.New(probe, InspectorFor(cfg), TrackerOptions(cfg)...)
	return NewSession(ctx, t, platform.Detect(probe.ButtonSource(), cfg.InspectorEnabled))
}

// NewSession 启动给定 Tracker 的采样循环
func NewSession(ctx context.Context, t *tracker.Tracker, caps *platform.Capabilities) *Session {
	ctx, cancel := context.WithCancel(ctx)
	t.Start(ctx)

	return &Session{
		Tracker:      t,
		Capabilities: caps,
		cancel:       cancel,
	}
}

// Stop 停止采样循环并释放资源
func (s *Session) Stop() {
	s.cancel()
	<-s.Tracker.Done()
	s.Tracker.Close()
}
