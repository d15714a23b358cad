package permissions

// PermissionStatus 权限状态
type PermissionStatus struct {
	Accessibility bool `json:"accessibility"`
	AllGranted    bool `json:"all_granted"`
}

// GetPermissionInstructions 获取权限说明
func GetPermissionInstructions(status *PermissionStatus) string {
	if status == nil || status.AllGranted {
		return ""
	}

	msg := "需要授权以下权限才能正常工作:\n\n"
	if !status.Accessibility {
		msg += "辅助功能权限 (用于读取鼠标按键状态)\n"
		msg += "   系统设置 > 隐私与安全性 > 辅助功能\n\n"
	}
	msg += "授权后需要重启应用才能生效。"

	return msg
}

// EnsurePermissions 确保权限已授予
func EnsurePermissions() (bool, string) {
	status := CheckPermissions()
	if status.AllGranted {
		return true, ""
	}

	return false, GetPermissionInstructions(status)
}
