// Package reshape turns a long-format radiomics sheet (one row per patient,
// timepoint, object, series) into a wide table with one row per patient.
//
// # Algorithm
//
// The five key columns are normalized (NFKC, trimmed), rows are ordered by the
// composite key, and each row's metrics are written into a per-patient
// accumulator under the column name
//
//	{AcquisitionDate}_{ObjectDescription}_{SeriesDataRole}_{metric}
//
// PatientID and PatientName sort lexicographically. AcquisitionDate,
// ObjectDescription and SeriesDataRole sort by the rank of the label in the
// active Vocabulary. Labels missing from the vocabulary sort after every known
// label and lexicographically among themselves.
//
// # Overwrites
//
// Later rows in sort order win. A PatientID seen under several PatientNames
// keeps the last-sorted name, and cells of both names land in the same output
// row. Neither case is an error; TransformWithSummary reports the counts.
//
// # Usage
//
//	wide, err := reshape.Transform(table)
//	if err != nil {
//	    var missing *reshape.MissingColumnError
//	    if errors.As(err, &missing) { ... }
//	}
package reshape
