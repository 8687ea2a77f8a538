package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage persists the whole section mapping as one blob. Load returns a nil
// map when nothing has been saved yet.
type Storage interface {
	Load() (map[string]*SectionHistory, error)
	Save(all map[string]*SectionHistory) error
}

// FileStorage 以单个 JSON 文件保存全部章节历史
type FileStorage struct {
	path string
	mu   sync.Mutex
}

// NewFileStorage 创建文件存储，目录在首次保存时创建
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Path returns the backing file path.
func (fs *FileStorage) Path() string {
	return fs.path
}

// Load 读取历史文件，文件不存在或为空时返回 nil
func (fs *FileStorage) Load() (map[string]*SectionHistory, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var all map[string]*SectionHistory
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}
	return all, nil
}

// Save 原子写入历史文件 (临时文件 + rename)
func (fs *FileStorage) Save(all map[string]*SectionHistory) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(fs.path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	tempPath := fs.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp history file: %w", err)
	}

	if err := os.Rename(tempPath, fs.path); err != nil {
		os.Remove(tempPath) // 清理临时文件
		return fmt.Errorf("failed to rename history file: %w", err)
	}

	return nil
}

// MemoryStorage keeps the mapping in process. Values are copied on the way in
// and out so callers never share entries with the stored snapshot.
type MemoryStorage struct {
	mu  sync.Mutex
	all map[string]*SectionHistory
}

// NewMemoryStorage returns an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (ms *MemoryStorage) Load() (map[string]*SectionHistory, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.all == nil {
		return nil, nil
	}
	return cloneAll(ms.all), nil
}

func (ms *MemoryStorage) Save(all map[string]*SectionHistory) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.all = cloneAll(all)
	return nil
}
