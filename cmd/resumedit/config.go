package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const defaultServerURL = "http://localhost:8000"

// Config 保存 CLI 全局配置
type Config struct {
	ServerURL string `yaml:"server_url" json:"server_url"`
	Output    string `yaml:"output" json:"output"`
}

// LoadConfig 从命令行标志、环境变量、配置文件加载配置（优先级从高到低）
func LoadConfig(cmd *cobra.Command) *Config {
	cfg := &Config{}

	// 尝试从配置文件读取基础值
	loadConfigFile(cfg, configPath())

	// 环境变量覆盖配置文件
	if v := os.Getenv("RESUMEDIT_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}

	// 命令行标志覆盖环境变量
	if v, _ := cmd.Flags().GetString("server-url"); v != "" {
		cfg.ServerURL = v
	}
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		cfg.Output = v
	}

	// 默认值
	if cfg.ServerURL == "" {
		cfg.ServerURL = defaultServerURL
	}
	if cfg.Output == "" {
		cfg.Output = "text"
	}

	return cfg
}

// configPath 返回配置文件路径，RESUMEDIT_CONFIG 优先于 ~/.resumedit/config.yaml
func configPath() string {
	if p := os.Getenv("RESUMEDIT_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".resumedit", "config.yaml")
}

// loadConfigFile 读取 YAML 配置文件，文件缺失或格式错误时忽略
func loadConfigFile(cfg *Config, path string) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	_ = yaml.Unmarshal(data, cfg)
}

// addGlobalFlags 为 root 命令添加全局标志
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("server-url", "", "服务器地址 (env: RESUMEDIT_SERVER_URL, 默认: "+defaultServerURL+")")
	cmd.PersistentFlags().StringP("output", "o", "", "输出格式: json / text (默认: text)")
}
