package service

import (
	"context"
	"fmt"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/export"
)

type timetableProvider interface {
	Timetable(ctx context.Context, studentID string) ([]models.RegistrationDetail, error)
}

// ExportService renders a student's approved timetable as CSV or PDF.
type ExportService struct {
	timetables timetableProvider
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
}

// NewExportService constructs ExportService.
func NewExportService(timetables timetableProvider) *ExportService {
	return &ExportService{
		timetables: timetables,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
	}
}

var timetableHeaders = []string{"Course", "Credits", "Schedule", "Instructor", "Semester"}

// TimetableCSV renders the timetable as CSV bytes.
func (s *ExportService) TimetableCSV(ctx context.Context, studentID string) ([]byte, error) {
	dataset, err := s.dataset(ctx, studentID)
	if err != nil {
		return nil, err
	}
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable csv")
	}
	return payload, nil
}

// TimetablePDF renders the timetable as PDF bytes.
func (s *ExportService) TimetablePDF(ctx context.Context, studentID string) ([]byte, error) {
	dataset, err := s.dataset(ctx, studentID)
	if err != nil {
		return nil, err
	}
	payload, err := s.pdf.Render(dataset, fmt.Sprintf("Timetable %s", studentID))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable pdf")
	}
	return payload, nil
}

func (s *ExportService) dataset(ctx context.Context, studentID string) (export.Dataset, error) {
	registrations, err := s.timetables.Timetable(ctx, studentID)
	if err != nil {
		return export.Dataset{}, err
	}
	rows := make([]map[string]string, 0, len(registrations))
	for _, r := range registrations {
		rows = append(rows, map[string]string{
			"Course":     r.CourseTitle,
			"Credits":    fmt.Sprintf("%d", r.CourseCredits),
			"Schedule":   r.CourseSchedule,
			"Instructor": r.Instructor,
			"Semester":   r.Semester,
		})
	}
	return export.Dataset{Headers: timetableHeaders, Rows: rows}, nil
}
