package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 统一配置结构
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Data      DataConfig      `yaml:"data"`
	Log       LogConfig       `yaml:"log"`
	Audit     AuditConfig     `yaml:"audit"`
	Diff      DiffConfig      `yaml:"diff"`
	FactCheck FactCheckConfig `yaml:"fact_check"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Env  string `yaml:"env"` // dev, staging, production
	Port string `yaml:"port"`
}

// DataConfig 数据文件配置
type DataConfig struct {
	HistoryFile string `yaml:"history_file"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
	File   string `yaml:"file"`   // 为空时仅输出到 stdout
}

// AuditConfig 审计日志配置
type AuditConfig struct {
	LogPath    string `yaml:"log_path"` // 为空时不记录审计日志
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// DiffConfig diff 计算配置
type DiffConfig struct {
	IgnoreWhitespace bool  `yaml:"ignore_whitespace"`
	IgnoreCase       bool  `yaml:"ignore_case"`
	MaxConcurrent    int64 `yaml:"max_concurrent"`
	MaxInputBytes    int64 `yaml:"max_input_bytes"`
}

// FactCheckConfig 事实校验配置
type FactCheckConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// GlobalConfig 全局配置实例
var GlobalConfig *Config

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{Env: "dev", Port: "8000"},
		Data:   DataConfig{HistoryFile: "./data/edit_history.json"},
		Log:    LogConfig{Level: "info", Format: "console"},
		Audit: AuditConfig{
			LogPath:    "./audit_logs/edits.log",
			MaxSizeMB:  100,
			MaxBackups: 10,
			MaxAgeDays: 30,
		},
		Diff: DiffConfig{
			MaxConcurrent: 16,
			MaxInputBytes: 1 << 20,
		},
		FactCheck: FactCheckConfig{SimilarityThreshold: 0.8},
	}
}

// LoadConfig 加载配置：默认值 < CONFIG_FILE 指定的 YAML 文件 < 环境变量
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	GlobalConfig = cfg
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var errs []string
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	cfg.Server.Env = getEnv("ENV", cfg.Server.Env)
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Data.HistoryFile = getEnv("HISTORY_FILE", cfg.Data.HistoryFile)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
	cfg.Audit.LogPath = getEnv("AUDIT_LOG_PATH", cfg.Audit.LogPath)

	var err error
	cfg.Audit.MaxSizeMB, err = getEnvInt("AUDIT_MAX_SIZE_MB", cfg.Audit.MaxSizeMB)
	collect(err)
	cfg.Audit.MaxBackups, err = getEnvInt("AUDIT_MAX_BACKUPS", cfg.Audit.MaxBackups)
	collect(err)
	cfg.Audit.MaxAgeDays, err = getEnvInt("AUDIT_MAX_AGE_DAYS", cfg.Audit.MaxAgeDays)
	collect(err)
	cfg.Diff.IgnoreWhitespace, err = getEnvBool("DIFF_IGNORE_WHITESPACE", cfg.Diff.IgnoreWhitespace)
	collect(err)
	cfg.Diff.IgnoreCase, err = getEnvBool("DIFF_IGNORE_CASE", cfg.Diff.IgnoreCase)
	collect(err)

	var n int
	n, err = getEnvInt("DIFF_MAX_CONCURRENT", int(cfg.Diff.MaxConcurrent))
	collect(err)
	cfg.Diff.MaxConcurrent = int64(n)
	n, err = getEnvInt("DIFF_MAX_INPUT_BYTES", int(cfg.Diff.MaxInputBytes))
	collect(err)
	cfg.Diff.MaxInputBytes = int64(n)

	cfg.FactCheck.SimilarityThreshold, err = getEnvFloat("FACTCHECK_SIMILARITY_THRESHOLD", cfg.FactCheck.SimilarityThreshold)
	collect(err)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ValidateConfig 验证配置的有效性
func ValidateConfig(cfg *Config) error {
	var errors []string

	// 1. 端口验证
	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid PORT value: %s (must be 1-65535)", cfg.Server.Port))
	}

	// 2. 日志级别验证
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		errors = append(errors, fmt.Sprintf("invalid LOG_LEVEL: %s (must be: debug, info, warn, error)", cfg.Log.Level))
	}

	// 3. 日志格式验证
	validLogFormats := map[string]bool{"console": true, "json": true}
	if !validLogFormats[cfg.Log.Format] {
		errors = append(errors, fmt.Sprintf("invalid LOG_FORMAT: %s (must be: console, json)", cfg.Log.Format))
	}

	// 4. 环境验证
	validEnvs := map[string]bool{"dev": true, "development": true, "staging": true, "production": true}
	if !validEnvs[cfg.Server.Env] {
		errors = append(errors, fmt.Sprintf("invalid ENV: %s (must be: dev, development, staging, production)", cfg.Server.Env))
	}

	// 5. 历史文件
	if strings.TrimSpace(cfg.Data.HistoryFile) == "" {
		errors = append(errors, "HISTORY_FILE is required")
	}

	// 6. diff 限制
	if cfg.Diff.MaxConcurrent < 1 {
		errors = append(errors, fmt.Sprintf("invalid DIFF_MAX_CONCURRENT: %d (must be >= 1)", cfg.Diff.MaxConcurrent))
	}
	if cfg.Diff.MaxInputBytes < 1 {
		errors = append(errors, fmt.Sprintf("invalid DIFF_MAX_INPUT_BYTES: %d (must be >= 1)", cfg.Diff.MaxInputBytes))
	}

	// 7. 相似度阈值
	if t := cfg.FactCheck.SimilarityThreshold; t <= 0 || t > 1 {
		errors = append(errors, fmt.Sprintf("invalid FACTCHECK_SIMILARITY_THRESHOLD: %g (must be in (0, 1])", t))
	}

	// 8. 审计日志轮转参数
	if cfg.Audit.LogPath != "" && (cfg.Audit.MaxSizeMB < 0 || cfg.Audit.MaxBackups < 0 || cfg.Audit.MaxAgeDays < 0) {
		errors = append(errors, "audit rotation settings must not be negative")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// IsProduction 判断是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// IsDevelopment 判断是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "dev" || c.Server.Env == "development"
}

// GetServerAddr 获取服务器监听地址
func (c *Config) GetServerAddr() string {
	return ":" + c.Server.Port
}

// PrintConfig 打印配置
func (c *Config) PrintConfig() string {
	return fmt.Sprintf(`Configuration Loaded:
  Environment: %s
  Server Port: %s
  History File: %s
  Logging:
    - Level: %s
    - Format: %s
    - File: %s
  Audit Log: %s
  Diff:
    - Ignore Whitespace: %t
    - Ignore Case: %t
    - Max Concurrent: %d
    - Max Input Bytes: %d
  Fact Check Threshold: %g`,
		c.Server.Env,
		c.Server.Port,
		c.Data.HistoryFile,
		c.Log.Level,
		c.Log.Format,
		orNotSet(c.Log.File),
		orNotSet(c.Audit.LogPath),
		c.Diff.IgnoreWhitespace,
		c.Diff.IgnoreCase,
		c.Diff.MaxConcurrent,
		c.Diff.MaxInputBytes,
		c.FactCheck.SimilarityThreshold,
	)
}

// 辅助函数

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: %q is not an integer", key, value)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: %q is not a boolean", key, value)
	}
	return b, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: %q is not a number", key, value)
	}
	return f, nil
}

func orNotSet(s string) string {
	if s == "" {
		return "<not set>"
	}
	return s
}
