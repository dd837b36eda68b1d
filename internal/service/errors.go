package service

import (
	"errors"
	"fmt"

	"github.com/yuqie6/SkillForge/internal/repository"
)

// ValidationError 输入非法（名称为空、时长越界等）
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NotFoundError 引用的技能不存在
type NotFoundError struct {
	SkillID int64
}

func (e *NotFoundError) Error() string {
	return "Skill not found"
}

// DuplicateNameError 技能名冲突
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("Skill '%s' already exists", e.Name)
}

// StorageError 底层持久化失败，原样上抛，不做猜测性恢复
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func validationErr(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// translateStoreErr 将仓储错误映射为领域错误
func translateStoreErr(op string, skillID int64, name string, err error) error {
	if err == nil {
		return nil
	}
	var (
		ve *ValidationError
		nf *NotFoundError
		dn *DuplicateNameError
		se *StorageError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &nf), errors.As(err, &dn), errors.As(err, &se):
		return err
	case errors.Is(err, repository.ErrSkillNotFound):
		return &NotFoundError{SkillID: skillID}
	case errors.Is(err, repository.ErrDuplicateName):
		return &DuplicateNameError{Name: name}
	default:
		return &StorageError{Op: op, Err: err}
	}
}
