// Package shared holds helpers used across packages.
//
// The testutil subpackage provides log capture for slog assertions and
// fixture builders for long-format radiomics tables and .xlsx workbooks.
//
//	logger, logs := testutil.NewTestLogger(t)
//	path := testutil.WriteWorkbook(t, "study.xlsx", "Feuil1", testutil.SampleLongTable())
package shared
