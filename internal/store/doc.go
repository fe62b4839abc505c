// Package store maps requests onto rows of the external tabular store and
// implements the conditional-update discipline the workflow engine relies on.
//
// The backing store offers two primitives: append a row and overwrite a row's
// cells by position. There is no compare-and-swap, so ConditionalUpdate is a
// best-effort guard — it re-reads the row's status immediately before writing
// and fails with ErrConflict on a mismatch. Callers must treat ErrConflict as
// "already decided elsewhere", never as a fault.
package store
