package repository

import (
	"context"

	"gorm.io/gorm"

	"school-journal/backend/internal/model"
)

// TagRepository 日志接收人关联数据访问接口
type TagRepository interface {
	Create(ctx context.Context, journalID, studentID int64) (int64, error)
	DeleteByJournal(ctx context.Context, journalID int64) error
	ListRecipients(ctx context.Context, journalIDs []int64) (map[int64][]string, error)
}

type tagRepo struct {
	db *gorm.DB
}

// NewTagRepo 创建 TagRepository 实例
func NewTagRepo(db *gorm.DB) TagRepository {
	return &tagRepo{db: db}
}

func (r *tagRepo) Create(ctx context.Context, journalID, studentID int64) (int64, error) {
	tag := &model.Tag{JournalID: journalID, StudentID: studentID}
	if err := r.db.WithContext(ctx).Create(tag).Error; err != nil {
		return 0, err
	}
	return tag.ID, nil
}

func (r *tagRepo) DeleteByJournal(ctx context.Context, journalID int64) error {
	return r.db.WithContext(ctx).
		Where("journal_id = ?", journalID).
		Delete(&model.Tag{}).Error
}

// ListRecipients 返回 journalID → 接收人用户名（按标记顺序）
func (r *tagRepo) ListRecipients(ctx context.Context, journalIDs []int64) (map[int64][]string, error) {
	result := make(map[int64][]string, len(journalIDs))
	if len(journalIDs) == 0 {
		return result, nil
	}

	var rows []model.Recipient
	err := r.db.WithContext(ctx).
		Table("tags").
		Select("tags.journal_id AS journal_id, users.username AS username").
		Joins("JOIN users ON users.id = tags.student_id").
		Where("tags.journal_id IN ?", journalIDs).
		Order("tags.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.JournalID] = append(result[row.JournalID], row.Username)
	}
	return result, nil
}
