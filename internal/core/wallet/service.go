// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package wallet

import (
	"context"
	"log/slog"

	"github.com/taibuivan/dashi/internal/platform/apperr"
	"github.com/taibuivan/dashi/internal/platform/tx"
	"github.com/taibuivan/dashi/internal/platform/validate"
	"github.com/taibuivan/dashi/pkg/pagination"
	"github.com/taibuivan/dashi/pkg/uuid"
)

// # Service Layer

// Service manages balances and their movement history.
type Service struct {
	repository Repository
	transactor tx.Transactor
	logger     *slog.Logger
}

// NewService constructs a new wallet [Service].
func NewService(repository Repository, transactor tx.Transactor, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		transactor: transactor,
		logger:     logger,
	}
}

// Balance returns the caller's current wallet.
func (service *Service) Balance(ctx context.Context, userID string) (*Wallet, error) {
	return service.repository.FindWallet(ctx, userID)
}

/*
Credit tops up a wallet.

Parameters:
  - userID: string (Wallet owner)
  - amount: int64 (Strictly positive)
  - reference: string (Audit label, e.g. a payment id)

Returns:
  - int64: The balance after the credit
  - error: apperr.ValidationError for a non-positive amount
*/
func (service *Service) Credit(ctx context.Context, userID string, amount int64, reference string) (int64, error) {
	validator := &validate.Validator{}
	validator.Positive(FieldAmount, amount)
	validator.Required(FieldReference, reference).MaxLen(FieldReference, reference, 128)
	if err := validator.Err(); err != nil {
		return 0, err
	}

	var balance int64
	err := service.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if balance, err = service.repository.AddBalance(ctx, userID, amount); err != nil {
			return err
		}
		return service.repository.InsertEntry(ctx, &Entry{ID: uuid.New(), UserID: userID, Amount: amount, Reference: reference})
	})
	if err != nil {
		return 0, err
	}

	service.logger.Info("wallet_credited",
		slog.String("user_id", userID),
		slog.Int64("amount", amount),
		slog.Int64("balance", balance),
	)

	return balance, nil
}

/*
Debit removes amount from the wallet in full or not at all.

Description: Runs inside the caller's transaction when ctx carries one, so a
later failure in that transaction also undoes the debit.

Returns:
  - error: apperr.InsufficientFunds when the balance does not cover amount
*/
func (service *Service) Debit(ctx context.Context, userID string, amount int64, reference string) error {
	if amount <= 0 {
		return apperr.ValidationError("Invalid amount", apperr.FieldError{Field: FieldAmount, Message: "must be greater than zero"})
	}

	return service.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		debited, err := service.repository.TryDebit(ctx, userID, amount)
		if err != nil {
			return err
		}
		if !debited {
			return apperr.InsufficientFunds("Wallet balance is too low")
		}
		return service.repository.InsertEntry(ctx, &Entry{ID: uuid.New(), UserID: userID, Amount: -amount, Reference: reference})
	})
}

// Entries pages through the caller's movements, newest first.
func (service *Service) Entries(ctx context.Context, userID string, page pagination.Params) ([]*Entry, int, error) {
	return service.repository.ListEntries(ctx, userID, page.Limit, page.Offset())
}
