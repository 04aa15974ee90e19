// Package dataprocessing reads radiomics spreadsheets into tables and
// computes column statistics for previews.
//
// # Reading
//
// Workbooks are read from .xlsx (excelize), legacy .xls (extrame/xls) or
// .csv files. The worksheet named "Feuil1" is preferred; when it is absent
// the first worksheet is used and a warning is logged.
//
//	table, err := dataprocessing.ReadFile("features.xlsx", dataprocessing.ReadOptions{})
//	if err != nil {
//	    return err
//	}
//
// The first non-blank row is the header. Blank header cells become
// "Unnamed: N" and repeated names are suffixed ".1", ".2", and so on, so
// every column of the returned table is unique. Fully blank rows are dropped.
// Cell values are kept as text exactly as stored.
//
// # Summaries
//
// Summarizer reports count, missing, mean, standard deviation, min and max
// per column using gonum:
//
//	stats := dataprocessing.NewSummarizer(logger, dataprocessing.DefaultSummarizerConfig()).Summarize(wide)
package dataprocessing
