package dto

// 注意：本包用于承载“对外契约”的 DTO（HTTP API / CLI 输出保持稳定）。
// 不要在这里放 GORM/持久化细节；内部持久化 schema 请见 internal/schema；业务逻辑收敛在 internal/service。

import (
	"time"

	"github.com/yuqie6/SkillForge/internal/schema"
)

// CreateSkillRequest 字段用指针区分“缺失”和“零值”
type CreateSkillRequest struct {
	Name *string `json:"name"`
}

type LogSessionRequest struct {
	SkillID         *int64 `json:"skill_id"`
	DurationMinutes *int   `json:"duration_minutes"`
}

type SkillDTO struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	CurrentLevel  int       `json:"current_level"`
	TotalXP       int64     `json:"total_xp"`
	XPToNextLevel int64     `json:"xp_to_next_level"`
	ProgressXP    int64     `json:"progress_xp"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type TrainingSessionDTO struct {
	ID              int64     `json:"id"`
	SkillID         int64     `json:"skill_id"`
	DurationMinutes int       `json:"duration_minutes"`
	XPAwarded       int64     `json:"xp_awarded"`
	CreatedAt       time.Time `json:"created_at"`
}

type LeaderboardEntryDTO struct {
	Rank    int64  `json:"rank"`
	SkillID int64  `json:"skill_id"`
	Name    string `json:"name"`
	TotalXP int64  `json:"total_xp"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthDTO struct {
	OK        bool   `json:"ok"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	Storage   string `json:"storage"`
	StartedAt string `json:"started_at"`
}

func NewSkillDTO(s schema.Skill) SkillDTO {
	return SkillDTO{
		ID:            s.ID,
		Name:          s.Name,
		CurrentLevel:  s.CurrentLevel,
		TotalXP:       s.TotalXP,
		XPToNextLevel: s.XPToNextLevel,
		ProgressXP:    s.ProgressXP,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func NewSkillDTOs(skills []schema.Skill) []SkillDTO {
	out := make([]SkillDTO, 0, len(skills))
	for _, s := range skills {
		out = append(out, NewSkillDTO(s))
	}
	return out
}

func NewTrainingSessionDTOs(sessions []schema.TrainingSession) []TrainingSessionDTO {
	out := make([]TrainingSessionDTO, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, TrainingSessionDTO{
			ID:              s.ID,
			SkillID:         s.SkillID,
			DurationMinutes: s.DurationMinutes,
			XPAwarded:       s.XPAwarded,
			CreatedAt:       s.CreatedAt,
		})
	}
	return out
}
