package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/planbook/planbook-api/internal/models"
	appErrors "github.com/planbook/planbook-api/pkg/errors"
	"github.com/planbook/planbook-api/pkg/export"
	"github.com/planbook/planbook-api/pkg/storage"
)

// ExportResult carries rendered export bytes with response metadata.
type ExportResult struct {
	ContentType string
	Filename    string
	Data        []byte
}

type scheduleEventLister interface {
	ListBySchedule(ctx context.Context, scheduleID int64) ([]models.ScheduleEvent, error)
}

// ExportService renders a schedule's events as CSV or PDF. With an archive
// configured, every rendered document is also kept on disk for re-download.
type ExportService struct {
	events  scheduleEventLister
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	archive *storage.ExportArchive
	enabled bool
	logger  *zap.Logger
}

// NewExportService wires the export service. archive may be nil.
func NewExportService(events scheduleEventLister, archive *storage.ExportArchive, enabled bool, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		events:  events,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		archive: archive,
		enabled: enabled,
		logger:  logger,
	}
}

// Enabled reports whether exports are switched on.
func (s *ExportService) Enabled() bool { return s != nil && s.enabled }

// Export renders the schedule in the requested format.
func (s *ExportService) Export(ctx context.Context, scheduleID int64, format string) (*ExportResult, error) {
	if !s.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}
	if scheduleID == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "scheduleId is required")
	}

	events, err := s.events.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule events")
	}
	dataset := scheduleDataset(events)

	switch strings.ToLower(format) {
	case "", "csv":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "csv rendering failed")
		}
		return s.finish(&ExportResult{
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("schedule-%d.csv", scheduleID),
			Data:        data,
		}), nil
	case "pdf":
		data, err := s.pdf.Render(dataset, fmt.Sprintf("Schedule %d", scheduleID))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "pdf rendering failed")
		}
		return s.finish(&ExportResult{
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("schedule-%d.pdf", scheduleID),
			Data:        data,
		}), nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

// finish archives the rendered document. Archiving is best effort: the
// inline response is served either way.
func (s *ExportService) finish(result *ExportResult) *ExportResult {
	if s.archive == nil {
		return result
	}
	if _, err := s.archive.Save(result.Filename, result.Data); err != nil {
		s.logger.Warn("failed to archive export",
			zap.String("filename", result.Filename),
			zap.Error(err),
		)
	}
	return result
}

func scheduleDataset(events []models.ScheduleEvent) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{"date", "period", "event_type", "course_id", "lesson_id", "comment"},
	}
	for _, ev := range events {
		lessonID := ""
		if ev.LessonID != nil {
			lessonID = strconv.FormatInt(*ev.LessonID, 10)
		}
		courseID := ""
		if ev.CourseID != 0 {
			courseID = strconv.FormatInt(ev.CourseID, 10)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"date":       ev.Date.Format("2006-01-02"),
			"period":     strconv.Itoa(ev.Period),
			"event_type": string(ev.EventType),
			"course_id":  courseID,
			"lesson_id":  lessonID,
			"comment":    ev.Comment,
		})
	}
	return dataset
}
