package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hankpharris/tempora-ai-sub000/internal/calendar"
	appErrors "github.com/hankpharris/tempora-ai-sub000/pkg/errors"
	"github.com/hankpharris/tempora-ai-sub000/pkg/export"
)

// ExportFormat selects the agenda output encoding.
type ExportFormat string

// Supported agenda formats.
const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportService renders a user's upcoming occurrences as a downloadable
// agenda.
type ExportService struct {
	calendar *CalendarService
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(calendarService *CalendarService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		calendar: calendarService,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// ExportResult is the rendered agenda plus transport metadata.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Agenda renders the caller's occurrences between from and to in the
// requested format.
func (s *ExportService) Agenda(ctx context.Context, callerID string, from, to time.Time, format ExportFormat) (*ExportResult, error) {
	if !to.After(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "export range end must be after start")
	}

	occurrences, err := s.calendar.Occurrences(ctx, callerID)
	if err != nil {
		return nil, err
	}

	agenda := buildAgenda(occurrences, from, to)
	switch format {
	case ExportCSV:
		data, err := s.csv.Render(agenda)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render CSV agenda")
		}
		return &ExportResult{
			Filename:    exportFilename(from, to, "csv"),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case ExportPDF:
		data, err := s.pdf.Render(agenda)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render PDF agenda")
		}
		return &ExportResult{
			Filename:    exportFilename(from, to, "pdf"),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func buildAgenda(occurrences []calendar.Occurrence, from, to time.Time) export.Agenda {
	agenda := export.Agenda{
		Title:   fmt.Sprintf("Agenda %s to %s", from.Format("2006-01-02"), to.Format("2006-01-02")),
		Headers: []string{"Date", "Start", "End", "Event", "Description"},
	}
	for _, occ := range occurrences {
		if occ.Start.Before(from) || !occ.Start.Before(to) {
			continue
		}
		description := ""
		if occ.Description != nil {
			description = *occ.Description
		}
		agenda.Rows = append(agenda.Rows, []string{
			occ.Start.UTC().Format("2006-01-02"),
			occ.Start.UTC().Format("15:04"),
			occ.End.UTC().Format("15:04"),
			occ.EventName,
			description,
		})
	}
	return agenda
}

func exportFilename(from, to time.Time, ext string) string {
	return fmt.Sprintf("agenda_%s_%s.%s", from.Format("20060102"), to.Format("20060102"), ext)
}
