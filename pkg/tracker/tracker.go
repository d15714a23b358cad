// Package tracker 实现指针状态采样循环与共享状态访问
//
// Tracker 以固定周期轮询 input.Probe，检测位置或按钮变化；
// 在"无按钮 -> 有按钮"的按下边沿调用 uia.Inspector 获取光标下元素尺寸。
// 位置、按钮与元素尺寸在同一次写锁内更新，读者不会看到半更新的状态。
package tracker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoeyai/cursorwatch/internal/logger"
	"github.com/zoeyai/cursorwatch/pkg/input"
	"github.com/zoeyai/cursorwatch/pkg/uia"
)

// Stats 采样统计
type Stats struct {
	Samples       uint64 `json:"samples"`
	Changes       uint64 `json:"changes"`
	Edges         uint64 `json:"edges"`
	InspectorHits uint64 `json:"inspector_hits"`
}

// Tracker 指针采样器，持有唯一的共享状态
type Tracker struct {
	probe     input.Probe
	inspector uia.Inspector
	opts      Options
	log       *logger.Logger
	cell      *cell

	// 仅由采样 goroutine 读写
	last    input.Sample
	hasLast bool

	samples       atomic.Uint64
	changes       atomic.Uint64
	edges         atomic.Uint64
	inspectorHits atomic.Uint64

	startOnce   sync.Once
	releaseOnce sync.Once
	done        chan struct{}
}

// New 创建 Tracker，inspector 为 nil 时使用 uia.Unavailable
func New(probe input.Probe, inspector uia.Inspector, opts ...Option) *Tracker {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if inspector == nil {
		inspector = uia.Unavailable{}
	}

	return &Tracker{
		probe:     probe,
		inspector: inspector,
		opts:      o,
		log:       o.Logger,
		cell:      newCell(),
		done:      make(chan struct{}),
	}
}

// Interval 返回采样周期
func (t *Tracker) Interval() time.Duration {
	return t.opts.Interval
}

// Tick 执行一次采样
// 仅在状态无法恢复时返回 ErrStatePoisoned。
// Tick 读写采样 goroutine 私有的上一次采样，不可与 Run / Start 并发调用。
func (t *Tracker) Tick() error {
	cur := t.probe.Sample()
	t.samples.Add(1)

	if t.hasLast && cur == t.last {
		return nil
	}

	var size *Size
	if t.isPressEdge(cur) {
		t.edges.Add(1)
		if s, ok := t.inspect(cur.X, cur.Y); ok {
			t.inspectorHits.Add(1)
			size = &Size{Width: s.Width, Height: s.Height}
		}
	}

	err := t.cell.withWrite(func(s *PointerState) {
		s.Position = Point{X: cur.X, Y: cur.Y}
		s.Buttons = Buttons(cur.Buttons)
		if size != nil {
			s.ElementSize = size
		}
	})
	if err != nil {
		return err
	}

	t.last = cur
	t.hasLast = true
	t.changes.Add(1)
	return nil
}

// isPressEdge 判断是否为"无按钮 -> 至少一个按钮"的跳变
func (t *Tracker) isPressEdge(cur input.Sample) bool {
	if !Buttons(cur.Buttons).Any() {
		return false
	}
	if !t.hasLast {
		return !t.opts.StrictFirstTick
	}
	return !Buttons(t.last.Buttons).Any()
}

// inspect 调用 Inspector 并记录耗时，panic 视为无结果
func (t *Tracker) inspect(x, y int) (size uia.Size, ok bool) {
	if _, unavailable := t.inspector.(uia.Unavailable); unavailable {
		return uia.Size{}, false
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			t.log.Debug("元素查询异常 (%d, %d): %v", x, y, r)
			size, ok = uia.Size{}, false
		}
		detail := fmt.Sprintf("元素查询 (%d, %d)", x, y)
		if ok {
			detail = fmt.Sprintf("元素查询 (%d, %d) -> %dx%d", x, y, size.Width, size.Height)
		}
		t.log.LogEvent("UIA", ok, time.Since(start), detail)
	}()
	return t.inspector.ElementSizeAt(x, y)
}

// Run 在当前 goroutine 上运行采样循环，直到 ctx 取消
// 返回 ctx.Err()，或状态损坏时返回 ErrStatePoisoned。同一时刻只能有一个 Run。
func (t *Tracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := t.Tick(); err != nil {
			t.log.Error("指针状态不可恢复: %v", err)
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Start 在独立 OS 线程上启动采样循环，重复调用无效
// 状态损坏属于进程级故障，直接 panic
func (t *Tracker) Start(ctx context.Context) {
	t.startOnce.Do(func() {
		go func() {
			defer close(t.done)

			// 平台服务（如 COM）按线程初始化，循环期间固定线程
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()

			// Inspector 持有的 COM 对象需在初始化它的线程上释放
			defer t.releaseInspector()

			if err := t.opts.ThreadInit(); err != nil {
				t.log.Warn("采样线程初始化失败，元素查询可能不可用: %v", err)
			}

			t.log.Info("采样循环已启动，周期 %v", t.opts.Interval)
			err := t.Run(ctx)
			if errors.Is(err, ErrStatePoisoned) {
				panic(err)
			}
			t.log.Info("采样循环已停止: %v", err)
		}()
	})
}

// Done 返回采样循环结束时关闭的通道
func (t *Tracker) Done() <-chan struct{} {
	return t.done
}

// Stats 返回采样统计
func (t *Tracker) Stats() Stats {
	return Stats{
		Samples:       t.samples.Load(),
		Changes:       t.changes.Load(),
		Edges:         t.edges.Load(),
		InspectorHits: t.inspectorHits.Load(),
	}
}

// Close 释放 Probe 与 Inspector 持有的资源，应在循环停止后调用
// 经 Start 运行过的 Inspector 已在采样线程上释放，这里不再重复
func (t *Tracker) Close() {
	if c, ok := t.probe.(interface{ Close() }); ok {
		c.Close()
	}
	t.releaseInspector()
}

// releaseInspector 释放 Inspector，只执行一次
func (t *Tracker) releaseInspector() {
	t.releaseOnce.Do(func() {
		if c, ok := t.inspector.(interface{ Close() }); ok {
			c.Close()
		}
	})
}
