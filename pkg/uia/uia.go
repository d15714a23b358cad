// Package uia provides hit-testing of UI elements through the platform
// accessibility layer.
//
// Only Windows UI Automation is implemented; on other platforms New returns
// Unavailable and every lookup reports no element.
package uia

// Size is the bounding size of a UI element. Degenerate rectangles reported
// by the OS yield negative values, which are passed through unchanged.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Inspector looks up the element at a screen coordinate.
// ok=false covers every failure: no window, no provider, denied access.
type Inspector interface {
	ElementSizeAt(x, y int) (size Size, ok bool)
}

// InspectorFunc adapts a function to Inspector
type InspectorFunc func(x, y int) (Size, bool)

// ElementSizeAt calls f(x, y)
func (f InspectorFunc) ElementSizeAt(x, y int) (Size, bool) {
	return f(x, y)
}

// Unavailable is the Inspector used where no accessibility service exists
type Unavailable struct{}

// ElementSizeAt always reports no element
func (Unavailable) ElementSizeAt(x, y int) (Size, bool) {
	return Size{}, false
}

// sizeFromRect converts edge coordinates to a size without clamping
func sizeFromRect(left, top, right, bottom int) Size {
	return Size{
		Width:  right - left,
		Height: bottom - top,
	}
}
