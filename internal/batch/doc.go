// Package batch runs indexed work in fixed-size windows.
//
// Run partitions [0, N) into consecutive windows, launches every task of a
// window concurrently behind a gate, waits for the whole window to finish,
// then pauses before the next one. Individual task failures are recorded as
// outcomes and never cancel sibling tasks.
package batch
