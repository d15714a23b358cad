//go:build windows

package input

import (
	"golang.org/x/sys/windows"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procGetAsyncKeyState = user32.NewProc("GetAsyncKeyState")
)

// 虚拟键码，顺序与 Sample.Buttons 下标一致
var buttonVKs = [3]uintptr{
	0x01, // VK_LBUTTON
	0x02, // VK_RBUTTON
	0x04, // VK_MBUTTON
}

const keyDownBit = 0x8000

// asyncKeyButtons 通过 GetAsyncKeyState 轮询按钮
type asyncKeyButtons struct{}

func newButtonSource() buttonSource {
	return asyncKeyButtons{}
}

// Buttons 读取三个鼠标键的当前状态
func (asyncKeyButtons) Buttons() ([3]bool, bool) {
	var out [3]bool
	if procGetAsyncKeyState.Find() != nil {
		return out, false
	}
	for i, vk := range buttonVKs {
		state, _, _ := procGetAsyncKeyState.Call(vk)
		out[i] = state&keyDownBit != 0
	}
	return out, true
}

func (asyncKeyButtons) Close() {}

func (asyncKeyButtons) Name() string { return "GetAsyncKeyState" }
