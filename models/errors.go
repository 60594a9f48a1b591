package models

import "errors"

// Validation errors: rejected before any state change, never retried.
var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrSelfTransfer      = errors.New("sender and recipient must differ")
	ErrSenderNotFound    = errors.New("sender not found")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrInvalidCategory   = errors.New("invalid transfer category")
	ErrInvalidPhone      = errors.New("invalid phone number")
)

// Policy errors: business-rule rejections; the caller may retry later if
// the underlying condition changes.
var (
	ErrRateLimitExceeded   = errors.New("daily transfer limit exceeded")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrScheduleRevoked     = errors.New("vesting schedule is revoked")
	ErrNotStarted          = errors.New("vesting has not started")
	ErrCliffPeriod         = errors.New("vesting is in the cliff period")
	ErrNothingClaimable    = errors.New("nothing claimable")
)

// Treasury gate errors.
var (
	ErrWalletNotFound       = errors.New("treasury wallet not found")
	ErrWalletInactive       = errors.New("treasury wallet is inactive")
	ErrNotASigner           = errors.New("user is not an authorized signer")
	ErrAlreadySigned        = errors.New("user already signed this transaction")
	ErrTransactionNotFound  = errors.New("treasury transaction not found")
	ErrTransactionTerminal  = errors.New("treasury transaction is terminal")
	ErrTransactionNotSigned = errors.New("treasury transaction is not fully signed")
	ErrWalletAddressMissing = errors.New("wallet address is required")
)
