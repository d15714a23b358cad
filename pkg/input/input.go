// Package input 提供指针设备采样（坐标 + 按钮状态）
//
// 坐标统一通过 robotgo 获取；按钮状态按平台选择实现：
// Windows 直接轮询 GetAsyncKeyState，其他平台通过 gohook 事件流维护。
package input

import (
	"sync"

	"github.com/go-vgo/robotgo"
)

// Sample 一次采样结果，Buttons 下标 0=左 1=右 2=中
type Sample struct {
	X       int
	Y       int
	Buttons [3]bool
}

// Probe 指针采样器
// Sample 不返回错误：底层调用失败时返回上一次的有效值
type Probe interface {
	Sample() Sample
}

// ProbeFunc 将函数适配为 Probe
type ProbeFunc func() Sample

// Sample 调用底层函数
func (f ProbeFunc) Sample() Sample {
	return f()
}

// buttonSource 按钮状态来源
// ok=false 表示当前无法获取，调用方应沿用旧值
type buttonSource interface {
	Buttons() (buttons [3]bool, ok bool)
	Close()
	Name() string
}

// DeviceProbe 基于 robotgo 与平台按钮来源的采样器
type DeviceProbe struct {
	mu      sync.Mutex
	buttons buttonSource
	locate  func() (int, int)
	last    Sample
}

// NewProbe 创建当前平台的采样器
func NewProbe() *DeviceProbe {
	return &DeviceProbe{
		buttons: newButtonSource(),
		locate:  robotgo.Location,
	}
}

// Sample 采样当前指针状态
func (p *DeviceProbe) Sample() Sample {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.last
	if x, y, ok := p.location(); ok {
		next.X, next.Y = x, y
	}
	if btns, ok := p.buttons.Buttons(); ok {
		next.Buttons = btns
	}
	p.last = next
	return next
}

// location 读取坐标，底层 panic 时视为本次不可用
func (p *DeviceProbe) location() (x, y int, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	x, y = p.locate()
	return x, y, true
}

// ButtonSource 返回按钮来源名称，用于诊断输出
func (p *DeviceProbe) ButtonSource() string {
	return p.buttons.Name()
}

// Close 释放按钮来源（如全局 hook）
func (p *DeviceProbe) Close() {
	p.buttons.Close()
}
