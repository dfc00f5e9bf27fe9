// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package wallet

import "context"

// # Wallet Data Access

// Repository defines the data access contract for balances and their history.
type Repository interface {

	// FindWallet returns the user's wallet; a user who never topped up has a zero balance.
	FindWallet(context context.Context, userID string) (*Wallet, error)

	// AddBalance credits amount, creating the wallet on first use, and returns the new balance.
	AddBalance(context context.Context, userID string, amount int64) (int64, error)

	/*
		TryDebit subtracts amount only when the balance covers it.

		Returns:
		  - bool: false when funds are insufficient and nothing changed
		  - error: Storage failures
	*/
	TryDebit(context context.Context, userID string, amount int64) (bool, error)

	// InsertEntry appends a balance movement.
	InsertEntry(context context.Context, entry *Entry) error

	// ListEntries returns a page of the user's movements, newest first, and the total count.
	ListEntries(context context.Context, userID string, limit, offset int) ([]*Entry, int, error)
}
