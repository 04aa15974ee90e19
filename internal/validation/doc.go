// Package validation checks uploaded workbooks before they are parsed.
//
// Descriptor rules (name, size) use go-playground/validator struct tags
// with a custom "filename" rule. Content checks compare the leading bytes
// with the ZIP signature for .xlsx and the OLE2 signature for .xls.
package validation
