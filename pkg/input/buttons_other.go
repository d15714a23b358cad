//go:build !windows

package input

import (
	"fmt"
	"sync"

	hook "github.com/robotn/gohook"

	"github.com/zoeyai/cursorwatch/internal/logger"
)

// hookButtons 通过全局鼠标 hook 维护按钮状态
//
// gohook 沿用 libuiohook 的事件编号：MouseHold 对应按下，MouseDown 对应释放。
type hookButtons struct {
	mu      sync.Mutex
	state   [3]bool
	once    sync.Once
	started bool
}

func newButtonSource() buttonSource {
	return &hookButtons{}
}

// start 仅启动一次事件监听
func (h *hookButtons) start() {
	h.once.Do(func() {
		evChan, err := startHook()
		if err != nil {
			logger.Warn("启动鼠标 hook 失败，按钮状态不可用: %v", err)
			return
		}

		h.mu.Lock()
		h.started = true
		h.mu.Unlock()

		go func() {
			for ev := range evChan {
				h.handleEvent(ev)
			}
			logger.Debug("鼠标 hook 事件流已结束")
		}()
	})
}

// startHook 启动 gohook；底层初始化失败时会 panic，这里转为错误
func startHook() (ch chan hook.Event, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gohook 启动异常: %v", r)
		}
	}()
	return hook.Start(), nil
}

// handleEvent 根据事件更新按钮状态
func (h *hookButtons) handleEvent(ev hook.Event) {
	idx, ok := buttonIndex(ev.Button)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	switch ev.Kind {
	case hook.MouseHold:
		h.state[idx] = true
	case hook.MouseDown:
		h.state[idx] = false
	}
}

// buttonIndex 将 gohook 按钮编号映射为下标
func buttonIndex(button uint16) (int, bool) {
	switch button {
	case hook.MouseMap["left"]:
		return 0, true
	case hook.MouseMap["right"]:
		return 1, true
	case hook.MouseMap["center"]:
		return 2, true
	default:
		return 0, false
	}
}

// Buttons 返回当前按钮状态
func (h *hookButtons) Buttons() ([3]bool, bool) {
	h.start()

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		return h.state, false
	}
	return h.state, true
}

// Close 停止 hook
func (h *hookButtons) Close() {
	h.mu.Lock()
	started := h.started
	h.started = false
	h.mu.Unlock()

	if started {
		hook.End()
	}
}

func (h *hookButtons) Name() string { return "gohook" }
