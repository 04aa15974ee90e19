package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"radiomics/internal/dataprocessing"
	"radiomics/internal/exporter"
	"radiomics/internal/files"
	"radiomics/internal/infrastructure"
	"radiomics/internal/reshape"
	"radiomics/internal/validation"
	api "radiomics/pkg/contracts/api/v1"
	"radiomics/pkg/contracts/domain"
)

// DefaultDownloadPrefix is the URL path downloads are served under.
const DefaultDownloadPrefix = "/api/downloads/"

// Upload is one workbook submitted for transformation.
type Upload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// TransformResult describes a finished transform and where to fetch it.
type TransformResult struct {
	CSVID      string               `json:"csv_id"`
	XLSXID     string               `json:"xlsx_id"`
	Downloads  api.DownloadLinks    `json:"downloads"`
	InputRows  int                  `json:"input_rows"`
	OutputRows int                  `json:"output_rows"`
	Columns    int                  `json:"columns"`
	Preview    *domain.Table        `json:"preview"`
	Stats      []domain.ColumnStats `json:"stats"`
	Summary    *reshape.Summary     `json:"summary"`
	Duration   time.Duration        `json:"-"`
}

// TransformConfig tunes a TransformService.
type TransformConfig struct {
	// SheetName is the preferred input worksheet.
	SheetName string
	// MaxConcurrent bounds transforms running at once; values below 1 mean 1.
	MaxConcurrent int64
	// Timeout bounds one transform including the wait for a slot. Zero
	// leaves only the caller's deadline.
	Timeout     time.Duration
	PreviewRows int
	Export      exporter.Options
	// DownloadPrefix is prepended to stored ids to form download links.
	DownloadPrefix string
}

// TransformService runs uploads through validation, parsing, reshaping and
// export.
type TransformService struct {
	reshaper   *reshape.Reshaper
	validator  *validation.UploadValidator
	summarizer *dataprocessing.Summarizer
	store      *files.Store
	sem        *semaphore.Weighted
	cfg        TransformConfig
	tracer     trace.Tracer
	metrics    *infrastructure.TransformMetrics
	logger     *slog.Logger
}

// NewTransformService creates a transform service with injected dependencies
func NewTransformService(
	reshaper *reshape.Reshaper,
	validator *validation.UploadValidator,
	summarizer *dataprocessing.Summarizer,
	store *files.Store,
	cfg TransformConfig,
	tracer trace.Tracer,
	metrics *infrastructure.TransformMetrics,
	logger *slog.Logger,
) *TransformService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.DownloadPrefix == "" {
		cfg.DownloadPrefix = DefaultDownloadPrefix
	}

	logger.Info("TransformService initialized",
		slog.Int64("max_concurrent", cfg.MaxConcurrent),
		slog.Duration("timeout", cfg.Timeout),
		slog.String("sheet_name", cfg.SheetName),
		slog.String("downloads_dir", store.Dir()))

	return &TransformService{
		reshaper:   reshaper,
		validator:  validator,
		summarizer: summarizer,
		store:      store,
		sem:        semaphore.NewWeighted(cfg.MaxConcurrent),
		cfg:        cfg,
		tracer:     tracer,
		metrics:    metrics,
		logger:     logger.With(slog.String("component", "transform_service")),
	}
}

// Vocabulary returns the ordered labels the service sorts by.
func (s *TransformService) Vocabulary() api.VocabularyResponse {
	v := s.reshaper.Vocabulary()
	return api.VocabularyResponse{
		Timepoints: v.Timepoints,
		Objects:    v.Objects,
		Series:     v.Series,
	}
}

// Transform validates up, reshapes its first matching worksheet and stores
// the wide table as CSV and XLSX.
func (s *TransformService) Transform(ctx context.Context, up Upload) (result *TransformResult, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "transform",
		trace.WithAttributes(
			attribute.String("upload.filename", path.Base(up.Filename)),
			attribute.Int64("upload.size", up.Size),
		))
	defer span.End()

	s.metrics.TransformsTotal.Add(ctx, 1)
	s.metrics.UploadBytes.Record(ctx, up.Size)
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "failure"
			kind := FailureKind(err)
			s.metrics.TransformFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
			infrastructure.RecordError(ctx, err)
			s.logger.WarnContext(ctx, "Transform failed",
				slog.String("kind", kind),
				slog.String("error", err.Error()))
		}
		s.metrics.TransformDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("outcome", outcome)))
	}()

	if up.Content == nil {
		return nil, ErrNilContent
	}
	if err := s.validate(ctx, up); err != nil {
		return nil, err
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBusy, err)
	}
	defer s.sem.Release(1)
	s.metrics.TransformsActive.Add(ctx, 1)
	defer s.metrics.TransformsActive.Add(ctx, -1)

	in, err := s.read(ctx, up)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, summary, err := s.reshape(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	csvID, xlsxID, err := s.export(ctx, out)
	if err != nil {
		return nil, err
	}

	result = &TransformResult{
		CSVID:  csvID,
		XLSXID: xlsxID,
		Downloads: api.DownloadLinks{
			CSV:  s.cfg.DownloadPrefix + csvID,
			XLSX: s.cfg.DownloadPrefix + xlsxID,
		},
		InputRows:  in.Len(),
		OutputRows: out.Len(),
		Columns:    len(out.Columns),
		Preview:    out.Head(s.cfg.PreviewRows),
		Stats:      s.summarizer.Summarize(out),
		Summary:    summary,
		Duration:   time.Since(start),
	}

	s.metrics.RowsIn.Add(ctx, int64(result.InputRows))
	s.metrics.RowsOut.Add(ctx, int64(result.OutputRows))
	span.SetAttributes(
		attribute.Int("transform.rows_in", result.InputRows),
		attribute.Int("transform.rows_out", result.OutputRows),
		attribute.Int("transform.columns", result.Columns),
	)

	s.logger.InfoContext(ctx, "Transform completed",
		slog.Int("input_rows", result.InputRows),
		slog.Int("patients", result.OutputRows),
		slog.Int("columns", result.Columns),
		slog.String("csv_id", csvID),
		slog.String("xlsx_id", xlsxID),
		slog.Duration("duration", result.Duration))
	return result, nil
}

func (s *TransformService) validate(ctx context.Context, up Upload) error {
	_, span := s.tracer.Start(ctx, "transform.validate")
	defer span.End()

	if err := s.validator.Validate(api.UploadRequest{Filename: up.Filename, Size: up.Size}); err != nil {
		return err
	}
	return s.validator.ValidateContent(up.Filename, up.Content)
}

func (s *TransformService) read(ctx context.Context, up Upload) (*domain.Table, error) {
	_, span := s.tracer.Start(ctx, "transform.read")
	defer span.End()

	table, err := dataprocessing.Read(up.Content, up.Filename, dataprocessing.ReadOptions{
		SheetName: s.cfg.SheetName,
		Logger:    s.logger,
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("table.rows", table.Len()),
		attribute.Int("table.columns", len(table.Columns)),
	)
	return table, nil
}

func (s *TransformService) reshape(ctx context.Context, in *domain.Table) (*domain.Table, *reshape.Summary, error) {
	ctx, span := s.tracer.Start(ctx, "transform.reshape")
	defer span.End()

	out, summary, err := s.reshaper.TransformWithSummary(in)
	if err != nil {
		return nil, nil, err
	}
	s.reportAnomalies(ctx, summary)
	return out, summary, nil
}

// reportAnomalies logs and counts irregularities the reshaper absorbed.
func (s *TransformService) reportAnomalies(ctx context.Context, summary *reshape.Summary) {
	record := func(kind string, n int) {
		if n > 0 {
			s.metrics.Anomalies.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
		}
	}
	unknown := 0
	for _, labels := range summary.UnknownLabels {
		unknown += len(labels)
	}
	record("duplicate_key", summary.DuplicateKeys)
	record("overwritten_cell", summary.OverwrittenCells)
	record("renamed_patient", len(summary.RenamedPatients))
	record("unknown_label", unknown)

	if summary.DuplicateKeys > 0 || summary.OverwrittenCells > 0 || len(summary.RenamedPatients) > 0 || unknown > 0 {
		s.logger.WarnContext(ctx, "Input irregularities absorbed",
			slog.Int("duplicate_keys", summary.DuplicateKeys),
			slog.Int("overwritten_cells", summary.OverwrittenCells),
			slog.Any("renamed_patients", summary.RenamedPatients),
			slog.Any("unknown_labels", summary.UnknownLabels))
	}
}

// export writes both output formats in parallel. When either fails the other
// is removed so a failed transform leaves no download behind.
func (s *TransformService) export(ctx context.Context, out *domain.Table) (csvID, xlsxID string, err error) {
	_, span := s.tracer.Start(ctx, "transform.export")
	defer span.End()

	var g errgroup.Group
	g.Go(func() error {
		id, err := s.store.Save(exporter.FormatCSV.Extension(), func(w io.Writer) error {
			return exporter.WriteCSV(w, out, s.cfg.Export.CSV)
		})
		csvID = id
		return err
	})
	g.Go(func() error {
		id, err := s.store.Save(exporter.FormatXLSX.Extension(), func(w io.Writer) error {
			return exporter.WriteXLSX(w, out, s.cfg.Export.XLSX)
		})
		xlsxID = id
		return err
	})
	if err := g.Wait(); err != nil {
		for _, id := range []string{csvID, xlsxID} {
			if id == "" {
				continue
			}
			if rerr := s.store.Remove(id); rerr != nil {
				s.logger.WarnContext(ctx, "Failed to remove partial export",
					slog.String("download_id", id),
					slog.String("error", rerr.Error()))
			}
		}
		return "", "", fmt.Errorf("failed to export result: %w", err)
	}
	return csvID, xlsxID, nil
}

// FailureKind classifies a transform error for metrics and logs.
func FailureKind(err error) string {
	var (
		missing   *reshape.MissingColumnError
		malformed *reshape.MalformedInputError
		invalid   *validation.Error
	)
	switch {
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	case errors.As(err, &missing):
		return "missing_columns"
	case errors.As(err, &malformed):
		return "malformed_input"
	case errors.As(err, &invalid),
		errors.Is(err, ErrNilContent),
		errors.Is(err, validation.ErrFileTooLarge),
		errors.Is(err, validation.ErrUnsupportedType),
		errors.Is(err, validation.ErrTemporaryFile),
		errors.Is(err, validation.ErrContentMismatch):
		return "invalid_upload"
	case errors.Is(err, dataprocessing.ErrUnsupportedFormat),
		errors.Is(err, dataprocessing.ErrUnreadable),
		errors.Is(err, dataprocessing.ErrNoHeader),
		errors.Is(err, dataprocessing.ErrNoWorksheet):
		return "unreadable"
	default:
		return "internal"
	}
}
