package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-journal/backend/internal/dto"
	"school-journal/backend/internal/model"
	"school-journal/backend/internal/repository"
)

// ── 日志模块业务错误 ──

var (
	ErrNotTeacher         = errors.New("仅老师可执行该操作")
	ErrJournalNotFound    = errors.New("日志不存在")
	ErrInvalidPublishDate = errors.New("发布日期格式无效")
)

// JournalService 日志业务接口
//
// 权限检查顺序（所有写操作一致）：
//  1. 调用者不存在或不是老师 → ErrNotTeacher
//  2. 条目不存在或不属于调用者 → ErrJournalNotFound（两者不做区分）
type JournalService interface {
	Create(ctx context.Context, callerID int64, req *dto.SaveJournalRequest) (*dto.JournalResponse, error)
	Update(ctx context.Context, callerID, id int64, req *dto.SaveJournalRequest) (*dto.JournalResponse, error)
	Delete(ctx context.Context, callerID, id int64) error
	Publish(ctx context.Context, callerID, id int64, req *dto.PublishJournalRequest) (*dto.JournalResponse, error)
	Feed(ctx context.Context, callerID int64) ([]dto.JournalResponse, error)
}

type journalService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewJournalService 创建 JournalService 实例
func NewJournalService(repo *repository.Repository, logger *zap.Logger) JournalService {
	return &journalService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── Create ──────────────────────

func (s *journalService) Create(ctx context.Context, callerID int64, req *dto.SaveJournalRequest) (*dto.JournalResponse, error) {
	if _, err := s.requireTeacher(ctx, callerID); err != nil {
		return nil, err
	}

	journal := &model.Journal{
		Description: req.Description,
		TeacherID:   callerID,
	}

	err := runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if err := txRepo.Journal.Create(ctx, journal); err != nil {
			s.logger.Error("创建日志失败", zap.Int64("teacher_id", callerID), zap.Error(err))
			return err
		}
		return s.tagRecipients(ctx, txRepo, journal.ID, req.StudentUsernames)
	})
	if err != nil {
		return nil, err
	}

	return toJournalResponse(journal), nil
}

// ────────────────────── Update ──────────────────────

// Update 覆盖描述并整体替换接收学生
func (s *journalService) Update(ctx context.Context, callerID, id int64, req *dto.SaveJournalRequest) (*dto.JournalResponse, error) {
	if _, err := s.requireOwnedJournal(ctx, callerID, id); err != nil {
		return nil, err
	}

	var updated *model.Journal
	err := runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		j, err := txRepo.Journal.UpdateDescription(ctx, id, callerID, req.Description)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrJournalNotFound
			}
			s.logger.Error("更新日志失败", zap.Int64("id", id), zap.Error(err))
			return err
		}
		updated = j

		if err := txRepo.Tag.DeleteByJournal(ctx, id); err != nil {
			s.logger.Error("清除日志标记失败", zap.Int64("id", id), zap.Error(err))
			return err
		}
		return s.tagRecipients(ctx, txRepo, id, req.StudentUsernames)
	})
	if err != nil {
		return nil, err
	}

	return toJournalResponse(updated), nil
}

// ────────────────────── Delete ──────────────────────

func (s *journalService) Delete(ctx context.Context, callerID, id int64) error {
	if _, err := s.requireOwnedJournal(ctx, callerID, id); err != nil {
		return err
	}

	// 外键同样级联删除标记，这里显式清理以免依赖库表定义
	return runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if err := txRepo.Tag.DeleteByJournal(ctx, id); err != nil {
			s.logger.Error("清除日志标记失败", zap.Int64("id", id), zap.Error(err))
			return err
		}
		if err := txRepo.Journal.Delete(ctx, id); err != nil {
			s.logger.Error("删除日志失败", zap.Int64("id", id), zap.Error(err))
			return err
		}
		return nil
	})
}

// ────────────────────── Publish ──────────────────────

// Publish 设置发布日期，不校验日期是否已过去，可重复发布
func (s *journalService) Publish(ctx context.Context, callerID, id int64, req *dto.PublishJournalRequest) (*dto.JournalResponse, error) {
	if _, err := s.requireOwnedJournal(ctx, callerID, id); err != nil {
		return nil, err
	}

	date, err := ParsePublishDate(req.PublishDate)
	if err != nil {
		return nil, err
	}

	journal, err := s.repo.Journal.Publish(ctx, id, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJournalNotFound
		}
		s.logger.Error("发布日志失败", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	return toJournalResponse(journal), nil
}

// ────────────────────── Feed ──────────────────────

// Feed 老师看到自己创建的全部条目，学生看到被标记且已到发布日期（或草稿）的条目
func (s *journalService) Feed(ctx context.Context, callerID int64) ([]dto.JournalResponse, error) {
	journals, err := loadFeed(ctx, s.repo, s.logger, callerID, s.now())
	if err != nil {
		return nil, err
	}

	result := make([]dto.JournalResponse, 0, len(journals))
	for i := range journals {
		result = append(result, *toJournalResponse(&journals[i]))
	}
	return result, nil
}

// ── 内部辅助方法 ──

// requireTeacher 加载调用者并校验老师身份
// 调用者不存在同样视为无权限
func (s *journalService) requireTeacher(ctx context.Context, callerID int64) (*model.User, error) {
	return requireTeacher(ctx, s.repo, s.logger, callerID)
}

func (s *journalService) requireOwnedJournal(ctx context.Context, callerID, id int64) (*model.Journal, error) {
	if _, err := s.requireTeacher(ctx, callerID); err != nil {
		return nil, err
	}

	journal, err := s.repo.Journal.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJournalNotFound
		}
		s.logger.Error("查询日志失败", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	if !journal.IsOwnedBy(callerID) {
		return nil, ErrJournalNotFound
	}
	return journal, nil
}

// tagRecipients 按用户名逐个标记学生，找不到的用户名静默跳过
func (s *journalService) tagRecipients(ctx context.Context, repo *repository.Repository, journalID int64, usernames []string) error {
	for _, name := range usernames {
		student, err := repo.User.GetByUsername(ctx, name)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			s.logger.Error("查询学生失败", zap.String("username", name), zap.Error(err))
			return err
		}
		if _, err := repo.Tag.Create(ctx, journalID, student.ID); err != nil {
			s.logger.Error("创建日志标记失败",
				zap.Int64("journal_id", journalID),
				zap.Int64("student_id", student.ID),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

func requireTeacher(ctx context.Context, repo *repository.Repository, logger *zap.Logger, callerID int64) (*model.User, error) {
	caller, err := repo.User.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotTeacher
		}
		logger.Error("查询调用者失败", zap.Int64("user_id", callerID), zap.Error(err))
		return nil, err
	}
	if !caller.IsTeacher {
		return nil, ErrNotTeacher
	}
	return caller, nil
}

// loadFeed 按调用者角色查询 Feed，today 取服务器本地日期
func loadFeed(ctx context.Context, repo *repository.Repository, logger *zap.Logger, callerID int64, today time.Time) ([]model.Journal, error) {
	caller, err := repo.User.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		logger.Error("查询调用者失败", zap.Int64("user_id", callerID), zap.Error(err))
		return nil, err
	}

	var journals []model.Journal
	if caller.IsTeacher {
		journals, err = repo.Journal.ListByTeacher(ctx, callerID)
	} else {
		journals, err = repo.Journal.ListByStudent(ctx, callerID, today)
	}
	if err != nil {
		logger.Error("查询 Feed 失败",
			zap.Int64("user_id", callerID),
			zap.Bool("is_teacher", caller.IsTeacher),
			zap.Error(err),
		)
		return nil, err
	}
	return journals, nil
}

// ParsePublishDate 解析发布日期：YYYY-MM-DD 或 RFC 3339（取其日期部分）
func ParsePublishDate(s string) (time.Time, error) {
	if t, err := time.Parse(model.DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return model.DateOf(t), nil
	}
	return time.Time{}, ErrInvalidPublishDate
}

func toJournalResponse(j *model.Journal) *dto.JournalResponse {
	resp := &dto.JournalResponse{
		ID:          j.ID,
		Description: j.Description,
		TeacherID:   j.TeacherID,
		CreatedAt:   j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   j.UpdatedAt.Format(time.RFC3339),
	}
	if j.PublishedDate != nil {
		d := j.PublishedDate.Format(model.DateLayout)
		resp.PublishedDate = &d
	}
	return resp
}
