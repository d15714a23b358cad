package tracker

// Accessor 对外暴露的状态访问接口
type Accessor interface {
	// GetState 返回当前状态的独立副本
	GetState() (PointerState, error)
	// UpdateElementSize 覆盖 element_size，不做校验
	UpdateElementSize(width, height int) error
}

var _ Accessor = (*Tracker)(nil)

// GetState 读取当前指针状态
func (t *Tracker) GetState() (PointerState, error) {
	var out PointerState
	err := t.cell.withRead(func(s *PointerState) {
		out = s.Clone()
	})
	return out, err
}

// UpdateElementSize 由外部（如前端测量结果）覆盖元素尺寸
func (t *Tracker) UpdateElementSize(width, height int) error {
	return t.cell.withWrite(func(s *PointerState) {
		s.ElementSize = &Size{Width: width, Height: height}
	})
}
