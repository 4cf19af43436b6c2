package services

import (
	"sync"
)

// LockRegistry 仓库锁注册表：每个仓库ID一把互斥锁，按需创建。
// 同一仓库同一时刻至多一次同步；不同仓库互不影响
type LockRegistry struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// NewLockRegistry 创建锁注册表
func NewLockRegistry() *LockRegistry {
	return &LockRegistry{
		locks: make(map[uint]*sync.Mutex),
	}
}

// TryAcquire 非阻塞获取仓库锁。成功时返回释放函数；
// 锁已被占用时立即返回false，绝不排队等待
func (r *LockRegistry) TryAcquire(id uint) (release func(), ok bool) {
	r.mu.Lock()
	m, exists := r.locks[id]
	if !exists {
		m = &sync.Mutex{}
		r.locks[id] = m
	}
	r.mu.Unlock()

	if !m.TryLock() {
		return nil, false
	}
	return m.Unlock, true
}

// Evict 删除仓库后清理对应锁项，避免注册表无限增长
func (r *LockRegistry) Evict(id uint) {
	r.mu.Lock()
	delete(r.locks, id)
	r.mu.Unlock()
}

// Len 当前注册的锁数量
func (r *LockRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
