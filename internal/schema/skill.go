package schema

import (
	"time"
)

const (
	// MinSessionMinutes 单次训练最短时长（分钟）
	MinSessionMinutes = 1
	// MaxSessionMinutes 单次训练最长时长（分钟），即 24 小时
	MaxSessionMinutes = 1440
	// MaxSkillNameLen 技能名最大长度
	MaxSkillNameLen = 100
)

// Skill 技能
// 数据量级：百级
type Skill struct {
	ID            int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string            `gorm:"size:100;not null;uniqueIndex" json:"name"` // 创建后不可修改，大小写敏感唯一
	CurrentLevel  int               `gorm:"column:current_level;not null;default:1" json:"current_level"`
	TotalXP       int64             `gorm:"column:total_xp;not null;default:0" json:"total_xp"`
	XPToNextLevel int64             `gorm:"column:xp_to_next_level;not null;default:0" json:"xp_to_next_level"`
	ProgressXP    int64             `gorm:"column:progress_xp;not null;default:0" json:"progress_xp"` // 当前等级内已获得的经验
	Sessions      []TrainingSession `gorm:"foreignKey:SkillID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (Skill) TableName() string {
	return "skills"
}

// SkillProgress 技能的进度快照。
// total_xp 与等级相关字段只能整体写入，不允许单独修改等级。
type SkillProgress struct {
	Level         int
	TotalXP       int64
	XPToNextLevel int64
	ProgressXP    int64
}

// Progress 返回技能当前的进度快照
func (s Skill) Progress() SkillProgress {
	return SkillProgress{
		Level:         s.CurrentLevel,
		TotalXP:       s.TotalXP,
		XPToNextLevel: s.XPToNextLevel,
		ProgressXP:    s.ProgressXP,
	}
}

// WithProgress 返回应用了新进度的技能副本
func (s Skill) WithProgress(p SkillProgress) Skill {
	s.CurrentLevel = p.Level
	s.TotalXP = p.TotalXP
	s.XPToNextLevel = p.XPToNextLevel
	s.ProgressXP = p.ProgressXP
	s.Sessions = nil
	return s
}
