// Package sheets is the Google Sheets backend for payflow's tabular
// persistence. It exposes only the primitives the store layer needs — append
// a row, scan a column, read and overwrite a row by position, and create a
// table with a header — because the backing API offers nothing stronger (no
// transactions, no row locks). Higher layers build their concurrency
// discipline on top of these calls.
package sheets
