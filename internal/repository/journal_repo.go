package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"school-journal/backend/internal/model"
)

// JournalRepository 日志条目数据访问接口
// 仅做持久化，不含业务规则
type JournalRepository interface {
	Create(ctx context.Context, journal *model.Journal) error
	GetByID(ctx context.Context, id int64) (*model.Journal, error)
	UpdateDescription(ctx context.Context, id, teacherID int64, description string) (*model.Journal, error)
	Delete(ctx context.Context, id int64) error
	Publish(ctx context.Context, id int64, date time.Time) (*model.Journal, error)
	ListByTeacher(ctx context.Context, teacherID int64) ([]model.Journal, error)
	ListByStudent(ctx context.Context, studentID int64, today time.Time) ([]model.Journal, error)
}

type journalRepo struct {
	db *gorm.DB
}

// NewJournalRepo 创建 JournalRepository 实例
func NewJournalRepo(db *gorm.DB) JournalRepository {
	return &journalRepo{db: db}
}

func (r *journalRepo) Create(ctx context.Context, journal *model.Journal) error {
	journal.PublishedDate = nil
	return r.db.WithContext(ctx).Create(journal).Error
}

func (r *journalRepo) GetByID(ctx context.Context, id int64) (*model.Journal, error) {
	var journal model.Journal
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&journal).Error
	if err != nil {
		return nil, err
	}
	return &journal, nil
}

// UpdateDescription 仅当 teacherID 为所有者时更新，否则返回 gorm.ErrRecordNotFound
func (r *journalRepo) UpdateDescription(ctx context.Context, id, teacherID int64, description string) (*model.Journal, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Journal{}).
		Where("id = ? AND teacher_id = ?", id, teacherID).
		Update("description", description)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete 删除条目；tags 由外键 ON DELETE CASCADE 兜底
func (r *journalRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Journal{}).Error
}

// Publish 无条件覆盖发布日期，所有权由调用方保证
func (r *journalRepo) Publish(ctx context.Context, id int64, date time.Time) (*model.Journal, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Journal{}).
		Where("id = ?", id).
		Update("published_date", model.DateOf(date))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *journalRepo) ListByTeacher(ctx context.Context, teacherID int64) ([]model.Journal, error) {
	journals := make([]model.Journal, 0)
	err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("id DESC").
		Find(&journals).Error
	return journals, err
}

// ListByStudent 标记给该学生、且为草稿或发布日期不晚于 today 的条目
// 用子查询代替 JOIN，重复标记不会产生重复行
func (r *journalRepo) ListByStudent(ctx context.Context, studentID int64, today time.Time) ([]model.Journal, error) {
	journals := make([]model.Journal, 0)
	err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.WithContext(ctx).Model(&model.Tag{}).Select("journal_id").Where("student_id = ?", studentID)).
		Where("published_date IS NULL OR published_date <= CAST(? AS DATE)", model.DateOf(today).Format(model.DateLayout)).
		Order("id DESC").
		Find(&journals).Error
	return journals, err
}
