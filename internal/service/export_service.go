package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"school-journal/backend/internal/model"
	"school-journal/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 老师导出自己创建的全部日志为 Excel (.xlsx)，含接收学生
//   - 任意用户可将自己的 Feed 订阅为 iCalendar，每条已定日期的日志对应一个全天事件
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportJournals 导出老师的日志为 Excel，返回内容与建议文件名
	ExportJournals(ctx context.Context, callerID int64) (*bytes.Buffer, string, error)
	// FeedCalendar 将调用者的 Feed 生成为 iCalendar 文本
	FeedCalendar(ctx context.Context, callerID int64) (string, error)
}

type exportService struct {
	repo   *repository.Repository
	issuer string
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
// issuer 用于生成 iCalendar 事件 UID 的域部分
func NewExportService(repo *repository.Repository, issuer string, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, issuer: issuer, logger: logger, now: time.Now}
}

// ═══════════════════════════════════════════════════════════
// ExportJournals 导出日志为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "日志"，第 1 行为表头
//   - 列：ID / 内容 / 状态 / 发布日期 / 接收学生 / 创建时间
//   - 状态按服务器当天日期计算：草稿 / 待发布 / 已发布
//   - 无日志时仅输出表头

var journalSheetHeaders = []string{"ID", "内容", "状态", "发布日期", "接收学生", "创建时间"}

func (s *exportService) ExportJournals(ctx context.Context, callerID int64) (*bytes.Buffer, string, error) {
	// 1. 仅老师可导出
	caller, err := requireTeacher(ctx, s.repo, s.logger, callerID)
	if err != nil {
		return nil, "", err
	}

	// 2. 查询日志与接收人
	journals, err := s.repo.Journal.ListByTeacher(ctx, callerID)
	if err != nil {
		s.logger.Error("查询老师日志失败", zap.Int64("teacher_id", callerID), zap.Error(err))
		return nil, "", err
	}

	ids := make([]int64, 0, len(journals))
	for i := range journals {
		ids = append(ids, journals[i].ID)
	}
	recipients, err := s.repo.Tag.ListRecipients(ctx, ids)
	if err != nil {
		s.logger.Error("查询日志接收人失败", zap.Int64("teacher_id", callerID), zap.Error(err))
		return nil, "", err
	}

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "日志"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, "B", "B", 48)
	f.SetColWidth(sheetName, "C", "D", 12)
	f.SetColWidth(sheetName, "E", "E", 32)
	f.SetColWidth(sheetName, "F", "F", 22)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range journalSheetHeaders {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(journalSheetHeaders)-1), 1), headerStyle)

	today := s.now()
	row := 2
	for i := range journals {
		j := &journals[i]
		publish := "-"
		if j.PublishedDate != nil {
			publish = j.PublishedDate.Format(model.DateLayout)
		}

		f.SetCellValue(sheetName, cell("A", row), j.ID)
		f.SetCellValue(sheetName, cell("B", row), j.Description)
		f.SetCellValue(sheetName, cell("C", row), journalStatus(j, today))
		f.SetCellValue(sheetName, cell("D", row), publish)
		f.SetCellValue(sheetName, cell("E", row), strings.Join(recipients[j.ID], ", "))
		f.SetCellValue(sheetName, cell("F", row), j.CreatedAt.Format("2006-01-02 15:04"))
		row++
	}

	// 4. 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("日志_%s_%s.xlsx", caller.Username, today.Format("20060102"))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// FeedCalendar Feed 转 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 与 Feed 使用同一套可见性规则；草稿没有日期，不生成事件。

func (s *exportService) FeedCalendar(ctx context.Context, callerID int64) (string, error) {
	now := s.now()
	journals, err := loadFeed(ctx, s.repo, s.logger, callerID, now)
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(fmt.Sprintf("-//%s//journal feed//ZH", s.issuer))
	cal.SetXWRCalName("学校日志")

	for i := range journals {
		j := &journals[i]
		if j.PublishedDate == nil {
			continue
		}
		day := model.DateOf(*j.PublishedDate)

		event := cal.AddEvent(fmt.Sprintf("journal-%d@%s", j.ID, s.issuer))
		event.SetDtStampTime(now)
		event.SetCreatedTime(j.CreatedAt)
		event.SetModifiedAt(j.UpdatedAt)
		event.SetAllDayStartAt(day)
		event.SetAllDayEndAt(day.AddDate(0, 0, 1))
		event.SetSummary(summaryOf(j.Description))
		event.SetDescription(j.Description)
	}

	return cal.Serialize(), nil
}

// ── 辅助函数 ──

// journalStatus 条目相对 today 的状态
func journalStatus(j *model.Journal, today time.Time) string {
	switch {
	case j.PublishedDate == nil:
		return "草稿"
	case !j.VisibleOn(today):
		return "待发布"
	default:
		return "已发布"
	}
}

// summaryOf 取描述首行作为事件标题，最长 40 个字符
func summaryOf(description string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(description), "\n")
	runes := []rune(line)
	if len(runes) > 40 {
		return string(runes[:40]) + "…"
	}
	if len(runes) == 0 {
		return "日志"
	}
	return line
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
