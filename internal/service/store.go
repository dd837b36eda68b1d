package service

import (
	"context"

	"github.com/yuqie6/SkillForge/internal/repository"
)

type gormStore struct {
	s *repository.Store
}

// NewProgressStore 基于 gorm 仓储构建 ProgressStore
func NewProgressStore(s *repository.Store) ProgressStore {
	return gormStore{s: s}
}

func (g gormStore) Skills() SkillRepository { return g.s.Skills }

func (g gormStore) Sessions() SessionLedger { return g.s.Sessions }

func (g gormStore) Atomic(ctx context.Context, fn func(tx ProgressStore) error) error {
	return g.s.Transaction(ctx, func(tx *repository.Store) error {
		return fn(gormStore{s: tx})
	})
}
