package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	api "radiomics/pkg/contracts/api/v1"
)

// DefaultMaxUploadBytes caps the size of an uploaded workbook.
const DefaultMaxUploadBytes int64 = 100 << 20

// DefaultExtensions are the upload types accepted by the service.
var DefaultExtensions = []string{".xlsx", ".xls"}

var (
	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	// ErrUnsupportedType is returned for extensions that are not accepted.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrTemporaryFile is returned for Office lock files such as "~$book.xlsx".
	ErrTemporaryFile = errors.New("temporary office file")
	// ErrContentMismatch is returned when the bytes do not match the extension.
	ErrContentMismatch = errors.New("file content does not match its extension")
)

var (
	zipSignature  = []byte{'P', 'K', 0x03, 0x04}
	ole2Signature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// FieldError describes one failed struct-tag rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Error collects the field errors of one validation run.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// UploadValidator checks uploads before they are parsed.
type UploadValidator struct {
	validate   *validator.Validate
	logger     *slog.Logger
	maxBytes   int64
	extensions map[string]bool
}

// NewUploadValidator creates a validator. Zero or empty arguments fall back to
// DefaultMaxUploadBytes and DefaultExtensions.
func NewUploadValidator(maxBytes int64, extensions []string, logger *slog.Logger) *UploadValidator {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	v := validator.New()
	v.RegisterValidation("filename", isValidFilename)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = true
	}

	return &UploadValidator{
		validate:   v,
		logger:     logger.With(slog.String("component", "upload_validator")),
		maxBytes:   maxBytes,
		extensions: exts,
	}
}

// MaxBytes returns the configured upload size limit.
func (v *UploadValidator) MaxBytes() int64 {
	return v.maxBytes
}

// Validate checks the upload descriptor: name rules, size and extension.
func (v *UploadValidator) Validate(req api.UploadRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		out := &Error{}
		for _, fe := range verrs {
			out.Fields = append(out.Fields, FieldError{
				Field:   fe.Field(),
				Tag:     fe.Tag(),
				Message: formatFieldError(fe),
			})
		}
		v.logger.Debug("Upload rejected", slog.String("reason", out.Error()))
		return out
	}

	if req.Size > v.maxBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, req.Size, v.maxBytes)
	}
	if strings.HasPrefix(filepath.Base(req.Filename), "~$") {
		return fmt.Errorf("%w: %s", ErrTemporaryFile, req.Filename)
	}
	ext := strings.ToLower(filepath.Ext(req.Filename))
	if !v.extensions[ext] {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	return nil
}

// ValidateContent checks that r starts with the signature implied by the
// file extension and rewinds r.
func (v *UploadValidator) ValidateContent(filename string, r io.ReadSeeker) error {
	head := make([]byte, len(ole2Signature))
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind upload: %w", err)
	}

	var want []byte
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		want = zipSignature
	case ".xls":
		want = ole2Signature
	default:
		return nil
	}
	if !bytes.HasPrefix(head, want) {
		return fmt.Errorf("%w: %s", ErrContentMismatch, filename)
	}
	return nil
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "filename":
		return fmt.Sprintf("%s must be a valid filename", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// isValidFilename rejects path separators, traversal and control characters.
func isValidFilename(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || name == "." {
		return false
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\:`) {
		return false
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
