// Package services implements the business logic behind the HTTP handlers.
//
// # Available Services
//
//   - TransformService: validates an upload, reads its worksheet, reshapes it
//     into one row per patient and stores CSV and XLSX outputs
//   - HealthService: liveness, readiness and version reporting
//
// # Concurrency
//
// TransformService bounds concurrent transforms with a weighted semaphore.
// A request that cannot get a slot before its deadline fails with ErrBusy,
// which the HTTP layer reports as 503 with Retry-After.
//
// # Error Handling
//
// Services return the errors of the packages they call unchanged (wrapped
// with %w where context helps), so handlers can map them with errors.Is and
// errors.As. FailureKind gives the coarse classification used in metrics.
package services
