// Package platform 汇总当前主机与采样能力信息
package platform

import (
	"os"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/zoeyai/cursorwatch/pkg/permissions"
	"github.com/zoeyai/cursorwatch/pkg/uia"
)

// Capabilities 主机与能力信息
type Capabilities struct {
	Hostname             string `json:"hostname"`
	Platform             string `json:"platform"`
	OSVersion            string `json:"os_version"`
	Arch                 string `json:"arch"`
	InspectorSupported   bool   `json:"inspector_supported"`
	InspectorEnabled     bool   `json:"inspector_enabled"`
	ButtonSource         string `json:"button_source"`
	AccessibilityGranted bool   `json:"accessibility_granted"`
}

// Detect 获取当前系统信息
func Detect(buttonSource string, inspectorEnabled bool) *Capabilities {
	caps := &Capabilities{
		Platform:             platformName(runtime.GOOS),
		OSVersion:            runtime.GOOS + "/" + runtime.GOARCH,
		Arch:                 runtime.GOARCH,
		InspectorSupported:   uia.IsSupported(),
		ButtonSource:         buttonSource,
		AccessibilityGranted: permissions.CheckPermissions().Accessibility,
	}
	caps.InspectorEnabled = inspectorEnabled && caps.InspectorSupported

	info, err := host.Info()
	if err == nil && info != nil {
		caps.Hostname = info.Hostname
		if info.PlatformVersion != "" {
			caps.OSVersion = strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
		}
		if info.KernelArch != "" {
			caps.Arch = info.KernelArch
		}
	}
	if caps.Hostname == "" {
		caps.Hostname, _ = os.Hostname()
	}

	return caps
}

// platformName 平台名称，darwin 显示为 MACOS
func platformName(goos string) string {
	name := strings.ToUpper(goos)
	if name == "DARWIN" {
		name = "MACOS"
	}
	return name
}
