// Package errors maps failures from the transform pipeline onto RFC 7807
// problem responses.
//
// Client-caused errors (missing columns, bad uploads, expired downloads) keep
// their message in the "detail" member. Anything unrecognized becomes a
// generic 500 so internal paths and library messages never reach callers.
package errors
