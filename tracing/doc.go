// Package tracing integrates observability back-ends with the mlkit client
// to provide distributed tracing of platform calls.  All instrumentation is
// kept in a separate package so that applications which do not require
// tracing can exclude it from their build.
package tracing
