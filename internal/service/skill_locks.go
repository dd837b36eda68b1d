package service

import "sync"

// skillLocks 按技能 ID 惰性创建互斥锁。
// 条目带引用计数，最后一个持有者/等待者释放时回收，表大小以进行中的操作数为上限。
type skillLocks struct {
	mu    sync.Mutex
	locks map[int64]*skillLock
}

type skillLock struct {
	mu   sync.Mutex
	refs int // 持有者 + 等待者，受 skillLocks.mu 保护
}

func newSkillLocks() *skillLocks {
	return &skillLocks{locks: make(map[int64]*skillLock)}
}

// lock 获取技能的独占访问，返回解锁函数
func (l *skillLocks) lock(id int64) func() {
	l.mu.Lock()
	e, ok := l.locks[id]
	if !ok {
		e = &skillLock{}
		l.locks[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()

		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *skillLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
