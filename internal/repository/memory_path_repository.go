package repository

import (
	"encoding/json"
	"sync"
	"time"

	"learnpath_backend/internal/model"
	"learnpath_backend/internal/util"
)

// MemoryPathRepository 进程内路径仓储，用于降依赖运行和测试。
// 按依赖注入传递实例，不做全局单例。读写都走深拷贝，模拟真实仓储的
// read-modify-write 语义（未经 Save 的修改不会泄漏回存储）。
type MemoryPathRepository struct {
	mu    sync.RWMutex
	paths map[string][]byte

	// Latency 人为读写延迟，并发序列化测试用
	Latency time.Duration
}

func NewMemoryPathRepository() *MemoryPathRepository {
	return &MemoryPathRepository{paths: make(map[string][]byte)}
}

func (r *MemoryPathRepository) Create(path *model.LearningPath) error {
	if path.ID == "" {
		path.ID = model.GenerateUUID()
	}
	now := time.Now()
	path.CreatedAt = now
	path.UpdatedAt = now
	return r.put(path)
}

func (r *MemoryPathRepository) FindByID(id string) (*model.LearningPath, error) {
	if r.Latency > 0 {
		time.Sleep(r.Latency)
	}
	r.mu.RLock()
	raw, ok := r.paths[id]
	r.mu.RUnlock()
	if !ok {
		return nil, util.ErrPathNotFound
	}
	var p model.LearningPath
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *MemoryPathRepository) ListByOwner(ownerID uint) ([]model.LearningPath, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.LearningPath
	for _, raw := range r.paths {
		var p model.LearningPath
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *MemoryPathRepository) Save(path *model.LearningPath) error {
	if r.Latency > 0 {
		time.Sleep(r.Latency)
	}
	r.mu.RLock()
	_, ok := r.paths[path.ID]
	r.mu.RUnlock()
	if !ok {
		return util.ErrPathNotFound
	}
	path.UpdatedAt = time.Now()
	return r.put(path)
}

func (r *MemoryPathRepository) put(path *model.LearningPath) error {
	raw, err := json.Marshal(path)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.paths[path.ID] = raw
	r.mu.Unlock()
	return nil
}
