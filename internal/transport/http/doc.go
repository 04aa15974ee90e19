// Package http implements the REST surface of the reshaper service.
//
// Handlers stay thin: they parse the request, call a service and render the
// result as JSON. Every failure goes through the shared ErrorHandler so
// clients always receive an RFC 7807 problem document.
//
// # Routes
//
//	POST /api/transform          multipart upload, field "file"
//	GET  /api/downloads/{id}     generated CSV or XLSX
//	GET  /api/vocabulary         ordered sort labels
//	GET  /api/health             health, plus /ready and /live
//	GET  /api/version            build information
//	GET  /metrics                Prometheus exposition
package http
