package tracker

import (
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
)

// ButtonCount 按钮数量（左、右、中）
const ButtonCount = 3

// 按钮下标约定
const (
	ButtonLeft = iota
	ButtonRight
	ButtonMiddle
)

// Point 屏幕坐标，多显示器下可能为负数
type Point struct {
	X int
	Y int
}

// MarshalJSON 序列化为 [x, y]
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.X, p.Y})
}

// UnmarshalJSON 从 [x, y] 解析
func (p *Point) UnmarshalJSON(data []byte) error {
	var v [2]int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("解析坐标失败: %w", err)
	}
	p.X, p.Y = v[0], v[1]
	return nil
}

// Size 元素尺寸 (width, height)
// 不做非负校验，退化矩形的负值原样保留
type Size struct {
	Width  int
	Height int
}

// MarshalJSON 序列化为 [width, height]
func (s Size) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{s.Width, s.Height})
}

// UnmarshalJSON 从 [width, height] 解析
func (s *Size) UnmarshalJSON(data []byte) error {
	var v [2]int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("解析尺寸失败: %w", err)
	}
	s.Width, s.Height = v[0], v[1]
	return nil
}

// Buttons 按钮按下状态，下标 0=左 1=右 2=中
type Buttons [ButtonCount]bool

// Any 是否有任意按钮按下
func (b Buttons) Any() bool {
	return lo.Contains(b[:], true)
}

// PointerState 指针状态快照
type PointerState struct {
	Position    Point   `json:"position"`
	Buttons     Buttons `json:"buttons"`
	ElementSize *Size   `json:"element_size"`
}

// Clone 返回独立副本
func (s PointerState) Clone() PointerState {
	out := s
	if s.ElementSize != nil {
		size := *s.ElementSize
		out.ElementSize = &size
	}
	return out
}

// initialState 启动时的初始状态
func initialState() PointerState {
	return PointerState{}
}
