package services

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/goleak"

	"radiomics/internal/dataprocessing"
	"radiomics/internal/exporter"
	"radiomics/internal/files"
	"radiomics/internal/infrastructure"
	"radiomics/internal/reshape"
	"radiomics/internal/shared/testutil"
	"radiomics/internal/validation"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestService(t *testing.T, cfg TransformConfig) (*TransformService, *files.Store) {
	t.Helper()
	return newTestServiceWithStore(t, cfg, ".csv", ".xlsx")
}

// newTestServiceWithStore builds a service whose store only accepts the given
// extensions.
func newTestServiceWithStore(t *testing.T, cfg TransformConfig, extensions ...string) (*TransformService, *files.Store) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	reshaper, err := reshape.New(reshape.DefaultVocabulary())
	require.NoError(t, err)
	store, err := files.NewStore(t.TempDir(), time.Hour, extensions, logger)
	require.NoError(t, err)
	metrics, err := infrastructure.NewTransformMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	svc := NewTransformService(
		reshaper,
		validation.NewUploadValidator(0, nil, logger),
		dataprocessing.NewSummarizer(logger, dataprocessing.DefaultSummarizerConfig()),
		store,
		cfg,
		tracenoop.NewTracerProvider().Tracer("test"),
		metrics,
		logger,
	)
	return svc, store
}

func workbookUpload(t *testing.T, name string, data []byte) Upload {
	return Upload{Filename: name, Size: int64(len(data)), Content: bytes.NewReader(data)}
}

func TestTransform_Success(t *testing.T) {
	svc, store := newTestService(t, TransformConfig{PreviewRows: 1})
	data := testutil.WorkbookBytes(t, "Feuil1", testutil.SampleLongTable())

	res, err := svc.Transform(context.Background(), workbookUpload(t, "study.xlsx", data))
	require.NoError(t, err)

	assert.Equal(t, 4, res.InputRows)
	assert.Equal(t, 2, res.OutputRows)
	assert.Equal(t, 8, res.Columns)
	assert.Equal(t, 2, res.Summary.Patients)
	require.Len(t, res.Preview.Rows, 1)
	assert.Equal(t, "P1", res.Preview.Rows[0][0])
	assert.Equal(t, "Baseline_Tumor_T2_SUVmax", res.Preview.Columns[2])
	assert.NotEmpty(t, res.Stats)

	assert.True(t, strings.HasSuffix(res.CSVID, ".csv"))
	assert.True(t, strings.HasSuffix(res.XLSXID, ".xlsx"))
	assert.Equal(t, DefaultDownloadPrefix+res.CSVID, res.Downloads.CSV)
	assert.Equal(t, DefaultDownloadPrefix+res.XLSXID, res.Downloads.XLSX)

	f, _, err := store.Open(res.CSVID)
	require.NoError(t, err)
	defer f.Close()
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "PatientID,PatientName,Baseline_Tumor_T2_SUVmax"))
	assert.True(t, strings.HasPrefix(lines[1], "P1,Alice,5.1,12"))

	x, _, err := store.Open(res.XLSXID)
	require.NoError(t, err)
	defer x.Close()
	wb, err := excelize.OpenReader(x)
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows(exporter.DefaultSheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestTransform_Errors(t *testing.T) {
	svc, store := newTestService(t, TransformConfig{})

	missing := testutil.SampleLongTable()
	missing.Columns[4] = "Series"
	noWorkbook, err := os.ReadFile(filepath.Join("..", "dataprocessing", "testdata", "no_workbook_stream.xls"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		upload Upload
		check  func(t *testing.T, err error)
		kind   string
	}{
		{
			name:   "nil content",
			upload: Upload{Filename: "a.xlsx", Size: 10},
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNilContent) },
			kind:   "invalid_upload",
		},
		{
			name:   "wrong extension",
			upload: workbookUpload(t, "a.csv", []byte("PatientID\nP1\n")),
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, validation.ErrUnsupportedType) },
			kind:   "invalid_upload",
		},
		{
			name:   "content mismatch",
			upload: workbookUpload(t, "a.xlsx", []byte("definitely not a zip")),
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, validation.ErrContentMismatch) },
			kind:   "invalid_upload",
		},
		{
			name:   "compound file without workbook",
			upload: workbookUpload(t, "a.xls", noWorkbook),
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, dataprocessing.ErrUnreadable)
				assert.Contains(t, err.Error(), "workbook stream not found")
			},
			kind: "unreadable",
		},
		{
			name:   "missing key column",
			upload: workbookUpload(t, "a.xlsx", testutil.WorkbookBytes(t, "Feuil1", missing)),
			check: func(t *testing.T, err error) {
				var mc *reshape.MissingColumnError
				require.ErrorAs(t, err, &mc)
				assert.Equal(t, []string{"SeriesDataRole"}, mc.Columns)
			},
			kind: "missing_columns",
		},
		{
			name:   "header only",
			upload: workbookUpload(t, "a.xlsx", testutil.WorkbookBytes(t, "Feuil1", testutil.LongTable(nil))),
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, reshape.ErrEmptyTable) },
			kind:   "malformed_input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Transform(context.Background(), tt.upload)
			require.Error(t, err)
			assert.Nil(t, res)
			tt.check(t, err)
			assert.Equal(t, tt.kind, FailureKind(err))
		})
	}

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "failed transforms must not leave files behind")
}

func TestTransform_ExportFailureRemovesSibling(t *testing.T) {
	svc, store := newTestServiceWithStore(t, TransformConfig{}, ".csv")
	data := testutil.WorkbookBytes(t, "Feuil1", testutil.SampleLongTable())

	res, err := svc.Transform(context.Background(), workbookUpload(t, "study.xlsx", data))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, files.ErrInvalidID)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "the saved csv must be removed when the xlsx export fails")
}

func TestTransform_BusyWhenNoSlot(t *testing.T) {
	svc, _ := newTestService(t, TransformConfig{MaxConcurrent: 1})
	require.NoError(t, svc.sem.Acquire(context.Background(), 1))
	defer svc.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	data := testutil.WorkbookBytes(t, "Feuil1", testutil.SampleLongTable())
	_, err := svc.Transform(ctx, workbookUpload(t, "study.xlsx", data))
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "busy", FailureKind(err))
}

func TestTransform_ConcurrentUploads(t *testing.T) {
	svc, store := newTestService(t, TransformConfig{MaxConcurrent: 2})
	data := testutil.WorkbookBytes(t, "Feuil1", testutil.SampleLongTable())

	const n = 6
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := svc.Transform(context.Background(), workbookUpload(t, "study.xlsx", data))
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		assert.NoError(t, <-errs)
	}

	matches, err := filepath.Glob(filepath.Join(store.Dir(), "*.csv"))
	require.NoError(t, err)
	assert.Len(t, matches, n)
}

func TestTransform_UsesConfiguredSheet(t *testing.T) {
	svc, _ := newTestService(t, TransformConfig{SheetName: "Radiomics"})
	data := testutil.WorkbookBytes(t, "Radiomics", testutil.SampleLongTable())

	res, err := svc.Transform(context.Background(), workbookUpload(t, "study.xlsx", data))
	require.NoError(t, err)
	assert.Equal(t, 2, res.OutputRows)
}

func TestVocabulary(t *testing.T) {
	svc, _ := newTestService(t, TransformConfig{})
	v := svc.Vocabulary()
	assert.Equal(t, []string{"Baseline", "Mid-treatment", "Post-treatment"}, v.Timepoints)
	assert.Equal(t, []string{"Tumor", "Peritumoral"}, v.Objects)
	assert.Equal(t, []string{"T2", "SUB", "T1"}, v.Series)
}

func TestFailureKind_Default(t *testing.T) {
	assert.Equal(t, "internal", FailureKind(io.ErrUnexpectedEOF))
	assert.Equal(t, "unreadable", FailureKind(dataprocessing.ErrNoHeader))
}
