package service

import "sync"

// pathLocks 按路径 ID 提供互斥锁。同一聚合上的变更操作必须串行，
// 否则自适应插入的步骤可能被并发写覆盖丢失。不同路径互不影响。
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*sync.Mutex)}
}

func (p *pathLocks) Get(pathID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[pathID]
	if !ok {
		l = &sync.Mutex{}
		p.locks[pathID] = l
	}
	return l
}
