package tracker

import (
	"errors"
	"sync"
)

// ErrStatePoisoned 共享状态在写入过程中发生 panic，状态不可再信任
var ErrStatePoisoned = errors.New("指针状态已损坏: 上一次写入未正常完成")

// cell 保存唯一的 PointerState，读写均在锁内完成
type cell struct {
	mu       sync.RWMutex
	state    PointerState
	poisoned bool
}

func newCell() *cell {
	return &cell{state: initialState()}
}

// withRead 在读锁内执行 fn
func (c *cell) withRead(fn func(s *PointerState)) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.poisoned {
		return ErrStatePoisoned
	}
	fn(&c.state)
	return nil
}

// withWrite 在写锁内执行 fn
// fn panic 时标记为损坏并释放锁，panic 继续向上传播
func (c *cell) withWrite(fn func(s *PointerState)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.poisoned {
		return ErrStatePoisoned
	}

	completed := false
	defer func() {
		if !completed {
			c.poisoned = true
		}
	}()

	fn(&c.state)
	completed = true
	return nil
}
