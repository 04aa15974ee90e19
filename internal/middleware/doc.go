// Package middleware holds the HTTP middleware chain of the reshaper
// server: request IDs, access logging, tracing and metrics, rate limiting,
// request deadlines and security headers.
package middleware
