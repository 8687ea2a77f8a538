package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// AuditAction 审计日志操作类型
type AuditAction string

const (
	ActionEditAccept   AuditAction = "edit_accept"
	ActionEditReject   AuditAction = "edit_reject"
	ActionEditRestore  AuditAction = "edit_restore"
	ActionClearSection AuditAction = "clear_section_history"
	ActionClearAll     AuditAction = "clear_all_history"
)

// AuditEntry 审计日志条目
type AuditEntry struct {
	Timestamp  time.Time   `json:"timestamp"`
	Operator   string      `json:"operator"`          // 请求来源 (client IP)
	Action     AuditAction `json:"action"`            // 操作类型
	ResourceID string      `json:"resource_id"`       // 资源标识 (section_id, change_id)
	Before     interface{} `json:"before,omitempty"`  // 操作前内容
	After      interface{} `json:"after,omitempty"`   // 操作后内容
	Details    string      `json:"details,omitempty"` // 额外详情
}

// AuditLogger 审计日志记录器接口
type AuditLogger interface {
	// LogAction 记录审计日志
	LogAction(operator string, action AuditAction, resourceID string, before, after interface{}, details string) error

	// LogActionSimple 记录简单审计日志 (不包含before/after)
	LogActionSimple(operator string, action AuditAction, resourceID string, details string) error
}

// Options 日志轮转参数
type Options struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// FileAuditLogger 基于 lumberjack 轮转文件的 JSONL 审计日志
type FileAuditLogger struct {
	path   string
	writer *lumberjack.Logger
	mu     sync.Mutex
	now    func() time.Time
}

// NewFileAuditLogger 创建文件审计日志记录器
func NewFileAuditLogger(logPath string, opts Options) (*FileAuditLogger, error) {
	if logPath == "" {
		return nil, fmt.Errorf("audit log path is required")
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 100
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 10
	}
	if opts.MaxAgeDays <= 0 {
		opts.MaxAgeDays = 30
	}
	return &FileAuditLogger{
		path: logPath,
		writer: &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		},
		now: time.Now,
	}, nil
}

// LogAction 以 JSONL 格式追加一条审计记录
func (f *FileAuditLogger) LogAction(operator string, action AuditAction, resourceID string, before, after interface{}, details string) error {
	entry := AuditEntry{
		Timestamp:  f.now().UTC(),
		Operator:   operator,
		Action:     action,
		ResourceID: resourceID,
		Before:     before,
		After:      after,
		Details:    details,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

// LogActionSimple 记录简单审计日志
func (f *FileAuditLogger) LogActionSimple(operator string, action AuditAction, resourceID string, details string) error {
	return f.LogAction(operator, action, resourceID, nil, nil, details)
}

// ReadEntries 读取当前日志文件中的审计记录 (不含已轮转的文件)
func (f *FileAuditLogger) ReadEntries() ([]AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}
	defer file.Close()

	var entries []AuditEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var entry AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit entry at %s:%d: %w", f.path, line, err)
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

// Close 关闭底层日志文件
func (f *FileAuditLogger) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writer.Close()
}

// NopAuditLogger 丢弃所有审计记录，用于未配置审计日志的场景
type NopAuditLogger struct{}

func (NopAuditLogger) LogAction(string, AuditAction, string, interface{}, interface{}, string) error {
	return nil
}

func (NopAuditLogger) LogActionSimple(string, AuditAction, string, string) error { return nil }
