// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package wallet holds each reader's virtual-currency balance.

It is the currency ledger consulted by chapter unlocks: [Service.Debit] either
removes the full amount or fails with INSUFFICIENT_FUNDS, and it joins the
caller's transaction so the debit commits or rolls back with the unlock record.
Every balance change appends an [Entry].
*/
package wallet

import "time"

// Wallet is the spendable coin balance of one user.
type Wallet struct {
	UserID    string    `json:"user_id"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Entry is one append-only balance movement. Debits are negative.
type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"created_at"`
}

// Field identifiers used in validation errors.
const (
	FieldAmount    = "amount"
	FieldReference = "reference"
)
