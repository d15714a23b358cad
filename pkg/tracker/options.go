package tracker

import (
	"time"

	"github.com/zoeyai/cursorwatch/internal/logger"
	"github.com/zoeyai/cursorwatch/pkg/uia"
)

// DefaultInterval 默认采样周期
const DefaultInterval = 10 * time.Millisecond

// Option 配置选项函数类型
type Option func(*Options)

// Options 采样循环配置
type Options struct {
	// Interval 采样周期
	Interval time.Duration
	// StrictFirstTick 为 true 时首次采样不触发按下边沿（与旧版行为一致）
	StrictFirstTick bool
	// ThreadInit 采样线程启动时执行的平台初始化
	ThreadInit func() error
	// Logger 日志记录器
	Logger *logger.Logger
}

// DefaultOptions 默认配置
func DefaultOptions() Options {
	return Options{
		Interval:   DefaultInterval,
		ThreadInit: uia.InitThread,
		Logger:     logger.Default(),
	}
}

// WithInterval 设置采样周期，非正数时保持默认值
func WithInterval(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.Interval = d
		}
	}
}

// WithStrictFirstTick 设置首次采样是否可触发边沿
func WithStrictFirstTick(strict bool) Option {
	return func(o *Options) {
		o.StrictFirstTick = strict
	}
}

// WithThreadInit 设置采样线程初始化函数
func WithThreadInit(fn func() error) Option {
	return func(o *Options) {
		if fn != nil {
			o.ThreadInit = fn
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(l *logger.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}
