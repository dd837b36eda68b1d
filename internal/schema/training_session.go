package schema

import "time"

// TrainingSession 一次训练记录（只追加，不可修改）
// 数据量级：千级/年
type TrainingSession struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SkillID         int64     `gorm:"not null;index:idx_training_sessions_skill_created,priority:1" json:"skill_id"`
	DurationMinutes int       `gorm:"not null" json:"duration_minutes"`
	XPAwarded       int64     `gorm:"column:xp_awarded;not null" json:"xp_awarded"` // 创建时计算，之后不再重算
	CreatedAt       time.Time `gorm:"index:idx_training_sessions_skill_created,priority:2" json:"created_at"`
}

// TableName 指定表名
func (TrainingSession) TableName() string {
	return "training_sessions"
}

// ValidDuration 判断训练时长是否在 [MinSessionMinutes, MaxSessionMinutes] 内
func ValidDuration(minutes int) bool {
	return minutes >= MinSessionMinutes && minutes <= MaxSessionMinutes
}
