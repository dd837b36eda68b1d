package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store 聚合仓储，并提供事务边界
type Store struct {
	db       *gorm.DB
	Skills   *SkillRepository
	Sessions *SessionRepository
}

// NewStore 基于连接（或事务）构建仓储集合
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		Skills:   NewSkillRepository(db),
		Sessions: NewSessionRepository(db),
	}
}

// Transaction 在事务中执行操作：fn 返回 nil 时提交，否则回滚
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
