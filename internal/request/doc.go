// Package request defines the expenditure request domain model: the Request
// record, its status lifecycle, spending categories, and the request code
// generator.
//
// Status transitions are monotonic. PENDING is the only non-terminal state;
// APPROVED, REJECTED, and WITHDRAWN are terminal and immutable once recorded.
// The workflow engine owns transition enforcement; this package only provides
// the vocabulary.
package request
