// Package api contains API contract definitions for the radiomics reshaper.
// Version v1 represents the current stable API version.
package api

// UploadRequest describes an uploaded workbook before its content is read.
type UploadRequest struct {
	Filename string `json:"filename" validate:"required,max=255,filename"`
	Size     int64  `json:"size" validate:"gt=0"`
}

// DownloadLinks points at the stored outputs of one transform.
type DownloadLinks struct {
	CSV  string `json:"csv"`
	XLSX string `json:"xlsx"`
}

// VocabularyResponse lists the ordered labels of each key level.
type VocabularyResponse struct {
	Timepoints []string `json:"timepoints"`
	Objects    []string `json:"objects"`
	Series     []string `json:"series"`
}
