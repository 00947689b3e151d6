// Package ledger is the arthouse state machine: an art marketplace with
// per-account balances and an independent counter.
//
// Handlers take the store and the caller explicitly. Each one reads and
// validates everything it needs before its first write, so a failed
// handler never leaves a partial write in the invocation's buffer.
//
// The package does not move native funds. Deposits describe funds the
// host has already moved to the contract; withdrawals return BankSend
// effects for the host to carry out.
package ledger
