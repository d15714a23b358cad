package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
)

// DefaultPollIntervalMs 默认采样周期（毫秒）
const DefaultPollIntervalMs = 10

// TrackerConfig 采样配置
type TrackerConfig struct {
	PollIntervalMs   int    `json:"poll_interval_ms"`
	InspectorEnabled bool   `json:"inspector_enabled"`
	StrictFirstTick  bool   `json:"strict_first_tick"`
	LogLevel         string `json:"log_level"`
	LogFile          string `json:"log_file"`
}

// DefaultTrackerConfig 默认采样配置
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		PollIntervalMs:   DefaultPollIntervalMs,
		InspectorEnabled: true,
		StrictFirstTick:  false,
		LogLevel:         "info",
		LogFile:          "",
	}
}

// Normalize 修正非法取值
func (c *TrackerConfig) Normalize() {
	if c.PollIntervalMs <= 0 {
		c.PollIntervalMs = DefaultPollIntervalMs
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// PollInterval 返回采样周期
func (c *TrackerConfig) PollInterval() time.Duration {
	if c.PollIntervalMs <= 0 {
		return DefaultPollIntervalMs * time.Millisecond
	}
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// Manager 配置管理器
type Manager struct {
	configDir  string
	configFile string
	mu         sync.RWMutex
}

// NewManager 创建配置管理器，配置目录位于 XDG 配置目录下
func NewManager() *Manager {
	return NewManagerWithDir(filepath.Join(xdg.ConfigHome, "cursorwatch"))
}

// NewManagerWithDir 使用指定目录创建配置管理器
func NewManagerWithDir(configDir string) *Manager {
	return &Manager{
		configDir:  configDir,
		configFile: filepath.Join(configDir, "config.json"),
	}
}

// ensureDir 确保配置目录存在
func (m *Manager) ensureDir() error {
	return os.MkdirAll(m.configDir, 0755)
}

// Load 加载配置
// 文件不存在时返回默认值；文件损坏时返回默认值和错误
func (m *Manager) Load() (*TrackerConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return DefaultTrackerConfig(), nil
	}

	data, err := os.ReadFile(m.configFile)
	if err != nil {
		return DefaultTrackerConfig(), fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 以默认值为底，缺失字段保持默认
	config := DefaultTrackerConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return DefaultTrackerConfig(), fmt.Errorf("解析配置文件失败: %w", err)
	}
	config.Normalize()

	return config, nil
}

// Save 保存配置
func (m *Manager) Save(config *TrackerConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureDir(); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(m.configFile, data, 0600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}

// Clear 清除配置
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return nil
	}

	return os.Remove(m.configFile)
}

// GetConfigDir 获取配置目录
func (m *Manager) GetConfigDir() string {
	return m.configDir
}

// GetConfigFile 获取配置文件路径
func (m *Manager) GetConfigFile() string {
	return m.configFile
}

// Exists 检查配置文件是否存在
func (m *Manager) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := os.Stat(m.configFile)
	return err == nil
}

// 全局配置管理器
var defaultManager = NewManager()

// GetDefaultManager 获取默认配置管理器
func GetDefaultManager() *Manager {
	return defaultManager
}

// Load 使用默认管理器加载配置
func Load() (*TrackerConfig, error) {
	return defaultManager.Load()
}

// Save 使用默认管理器保存配置
func Save(config *TrackerConfig) error {
	return defaultManager.Save(config)
}

// Clear 使用默认管理器清除配置
func Clear() error {
	return defaultManager.Clear()
}
