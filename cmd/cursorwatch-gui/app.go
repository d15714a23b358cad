package main

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"

	"github.com/wailsapp/wails/v3/pkg/application"

	"github.com/zoeyai/cursorwatch/internal/bootstrap"
	"github.com/zoeyai/cursorwatch/internal/logger"
	"github.com/zoeyai/cursorwatch/pkg/config"
	"github.com/zoeyai/cursorwatch/pkg/permissions"
	"github.com/zoeyai/cursorwatch/pkg/platform"
	"github.com/zoeyai/cursorwatch/pkg/tracker"
)

// ErrNotStarted 采样尚未启动
var ErrNotStarted = errors.New("采样尚未启动")

// MouseService 暴露给前端的指针状态服务
type MouseService struct {
	configMgr *config.Manager

	// 前端调用与关闭流程在不同 goroutine 上访问
	session atomic.Pointer[bootstrap.Session]

	// 测试时可替换
	start func(ctx context.Context, cfg *config.TrackerConfig) *bootstrap.Session
}

// NewMouseService 创建服务实例
func NewMouseService() *MouseService {
	return &MouseService{
		configMgr: config.GetDefaultManager(),
		start:     bootstrap.Start,
	}
}

// ServiceStartup 应用启动时调用，启动采样循环
func (s *MouseService) ServiceStartup(ctx context.Context, _ application.ServiceOptions) error {
	cfg, err := s.configMgr.Load()
	if err != nil {
		logger.Warn("加载配置失败，使用默认配置: %v", err)
	}

	if err := bootstrap.ApplyLogging(cfg); err != nil {
		logger.Warn("%v", err)
	}

	if runtime.GOOS == "darwin" {
		if ok, msg := permissions.EnsurePermissions(); !ok {
			logger.Warn("%s", msg)
			permissions.RequestAccessibilityPermission()
		}
	}

	s.session.Store(s.start(ctx, cfg))
	return nil
}

// ServiceShutdown 应用关闭时调用，停止采样循环
func (s *MouseService) ServiceShutdown() error {
	session := s.session.Swap(nil)
	if session == nil {
		return nil
	}
	session.Stop()
	return logger.Default().Close()
}

// current 返回运行中的会话
func (s *MouseService) current() (*bootstrap.Session, error) {
	session := s.session.Load()
	if session == nil {
		return nil, ErrNotStarted
	}
	return session, nil
}

// accessor 返回共享状态访问器
func (s *MouseService) accessor() (tracker.Accessor, error) {
	session, err := s.current()
	if err != nil {
		return nil, err
	}
	return session.Tracker, nil
}

// GetMouseState 获取当前指针状态快照
func (s *MouseService) GetMouseState() (tracker.PointerState, error) {
	acc, err := s.accessor()
	if err != nil {
		return tracker.PointerState{}, err
	}
	return acc.GetState()
}

// UpdateElementSize 由前端覆盖元素尺寸
func (s *MouseService) UpdateElementSize(width, height int) error {
	acc, err := s.accessor()
	if err != nil {
		return err
	}
	return acc.UpdateElementSize(width, height)
}

// GetCapabilities 获取平台能力信息
func (s *MouseService) GetCapabilities() (*platform.Capabilities, error) {
	session, err := s.current()
	if err != nil {
		return nil, err
	}
	return session.Capabilities, nil
}

// GetStats 获取采样统计
func (s *MouseService) GetStats() (tracker.Stats, error) {
	session, err := s.current()
	if err != nil {
		return tracker.Stats{}, err
	}
	return session.Tracker.Stats(), nil
}

// OpenAccessibilitySettings 打开系统辅助功能设置
func (s *MouseService) OpenAccessibilitySettings() {
	permissions.OpenAccessibilitySettings()
}
