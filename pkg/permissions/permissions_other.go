//go:build !darwin

// Package permissions 提供系统权限检查功能
package permissions

// CheckPermissions 检查所需权限
// 非 macOS 系统通常不需要特殊权限
func CheckPermissions() *PermissionStatus {
	return &PermissionStatus{
		Accessibility: true,
		AllGranted:    true,
	}
}

// RequestAccessibilityPermission 请求辅助功能权限
func RequestAccessibilityPermission() bool {
	return true
}

// OpenAccessibilitySettings 打开辅助功能设置页面
func OpenAccessibilitySettings() {}
