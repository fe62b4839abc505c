// Package ledger posts immutable disbursement entries for approved requests
// into period-scoped tables of the external store. Tables are created lazily
// on first use for each calendar month.
package ledger
