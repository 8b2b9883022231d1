// Package idgen generates the opaque identifiers used for journal entries.
// It sits under `internal` so callers cannot depend on the identifier
// format, only on its uniqueness.
package idgen
