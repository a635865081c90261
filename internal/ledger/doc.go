// Package ledger implements token balance accounting on top of the store.
//
// The ledger tracks circulating units: balances held by accounts plus
// the allowances accounts grant to spenders. Units enter circulation
// only through issuance (handled by the store's issuance sink, not this
// package) and leave it only through Burn. Transfers and allowance
// spends move units between accounts without changing the circulating
// total.
//
// CRITICAL PATTERNS:
//
// Guarded Debits: every operation that removes units from an account
// runs a single UPDATE guarded by `balance >= ?` and checks
// RowsAffected. There is no read-then-write window; an insufficient
// balance simply fails to match and the operation reports
// ErrInsufficientFunds. Allowance spends use the same pattern on the
// allowances table.
//
// Burn Destroys, Never Refunds: burned units reduce a balance and the
// circulating total but do not touch the issuance log or the schedule
// row. Issued-and-burned supply stays counted as issued.
package ledger
