// Package workflow implements the request lifecycle engine: the state
// machine from PENDING to a terminal outcome, the authorization gates on each
// transition, and the orchestration of store writes, ledger posting, and
// notifications.
//
// Events referencing the same request code may arrive concurrently. The
// engine never assumes mutual exclusion; whichever conditional update
// observes PENDING first wins, and every loser receives AlreadyDecided. A
// decision is committed once the store write succeeds — later failures
// (notification delivery, ledger posting) are reported but never unwind it.
package workflow
