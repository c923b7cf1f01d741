package services

import "errors"

var (
	// ErrNoBalanceSnapshot is returned when an account has no balance
	// snapshot at all. Accounts always get a seed snapshot at creation, so
	// this indicates the account was never initialized correctly.
	ErrNoBalanceSnapshot = errors.New("account has no balance snapshot")

	ErrSameAccountTransfer = errors.New("cannot transfer to the same account")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAccountNotFound     = errors.New("account not found")
)
