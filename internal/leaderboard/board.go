// Package leaderboard 按累计经验对技能排名。
//
// 启用 Redis 时排名保存在有序集合中，由事件总线增量同步；
// 未启用时直接从技能存储计算。
package leaderboard

import (
	"context"
	"sort"

	"github.com/yuqie6/SkillForge/internal/schema"
)

// Entry 排行榜条目
type Entry struct {
	Rank    int64  `json:"rank"`
	SkillID int64  `json:"skill_id"`
	Name    string `json:"name"`
	TotalXP int64  `json:"total_xp"`
}

// Board 排行榜
type Board interface {
	Record(ctx context.Context, skillID int64, name string, totalXP int64) error
	Remove(ctx context.Context, skillID int64) error
	Top(ctx context.Context, limit int) ([]Entry, error)
}

// SkillLister 技能列表来源
type SkillLister interface {
	ListSkills(ctx context.Context) ([]schema.Skill, error)
}

// StoreBoard 直接基于技能存储计算排名，写入为空操作
type StoreBoard struct {
	skills SkillLister
}

func NewStoreBoard(skills SkillLister) *StoreBoard {
	return &StoreBoard{skills: skills}
}

func (b *StoreBoard) Record(ctx context.Context, skillID int64, name string, totalXP int64) error {
	return nil
}

func (b *StoreBoard) Remove(ctx context.Context, skillID int64) error {
	return nil
}

func (b *StoreBoard) Top(ctx context.Context, limit int) ([]Entry, error) {
	skills, err := b.skills.ListSkills(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(skills, func(i, j int) bool {
		if skills[i].TotalXP != skills[j].TotalXP {
			return skills[i].TotalXP > skills[j].TotalXP
		}
		return skills[i].ID < skills[j].ID
	})
	if limit > 0 && len(skills) > limit {
		skills = skills[:limit]
	}
	out := make([]Entry, 0, len(skills))
	for i, s := range skills {
		out = append(out, Entry{Rank: int64(i + 1), SkillID: s.ID, Name: s.Name, TotalXP: s.TotalXP})
	}
	return out, nil
}
