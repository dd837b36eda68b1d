package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	// ErrSkillNotFound 技能不存在
	ErrSkillNotFound = errors.New("skill not found")
	// ErrDuplicateName 技能名已存在
	ErrDuplicateName = errors.New("skill name already exists")
)

// isUniqueViolation 判断是否唯一约束冲突。
// gorm 的错误翻译不覆盖 lib/pq，需要单独识别 23505。
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
