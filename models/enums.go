package models

// LedgerReason is the typed taxonomy for ledger entries. Entries carry a
// structured reference (type + id) instead of encoding linked entities in
// the reason text.
type LedgerReason string

const (
	LedgerReasonTransferOut        LedgerReason = "TRANSFER_OUT"
	LedgerReasonTransferIn         LedgerReason = "TRANSFER_IN"
	LedgerReasonTaxBurn            LedgerReason = "TAX_BURN"
	LedgerReasonTaxReserve         LedgerReason = "TAX_RESERVE"
	LedgerReasonVestingClaim       LedgerReason = "VESTING_CLAIM"
	LedgerReasonTreasuryWithdrawal LedgerReason = "TREASURY_WITHDRAWAL"
	LedgerReasonTreasuryDeposit    LedgerReason = "TREASURY_DEPOSIT"
	LedgerReasonWithdrawal         LedgerReason = "WITHDRAWAL"
	LedgerReasonAirdrop            LedgerReason = "AIRDROP"
	LedgerReasonAdjustment         LedgerReason = "ADJUSTMENT"
)

// TransferCategory decides the Vortex treatment: social actions are never
// taxed, commerce actions get the burn/reserve split.
type TransferCategory string

const (
	TransferCategorySocial   TransferCategory = "social"
	TransferCategoryCommerce TransferCategory = "commerce"
)

func (c TransferCategory) Valid() bool {
	return c == TransferCategorySocial || c == TransferCategoryCommerce
}

// LedgerReferenceType tags the entity a ledger entry or feed event points at.
type LedgerReferenceType string

const (
	LedgerReferenceTypeTransfer            LedgerReferenceType = "TF"
	LedgerReferenceTypeVestingRelease      LedgerReferenceType = "VR"
	LedgerReferenceTypeTreasuryTransaction LedgerReferenceType = "TT"
	LedgerReferenceTypeWithdrawal          LedgerReferenceType = "WD"
)

type TreasuryTransactionType string

const (
	TreasuryTransactionTypeDeposit    TreasuryTransactionType = "DEPOSIT"
	TreasuryTransactionTypeWithdrawal TreasuryTransactionType = "WITHDRAWAL"
	TreasuryTransactionTypeTransfer   TreasuryTransactionType = "TRANSFER"
)

func (t TreasuryTransactionType) Valid() bool {
	switch t {
	case TreasuryTransactionTypeDeposit, TreasuryTransactionTypeWithdrawal, TreasuryTransactionTypeTransfer:
		return true
	}
	return false
}

// Withdrawing reports whether the type moves value out of the wallet and is
// therefore balance-gated at validation and again at execution.
func (t TreasuryTransactionType) Withdrawing() bool {
	return t == TreasuryTransactionTypeWithdrawal || t == TreasuryTransactionTypeTransfer
}

type TreasuryTransactionStatus string

const (
	TreasuryTransactionStatusPending         TreasuryTransactionStatus = "PENDING"
	TreasuryTransactionStatusPartiallySigned TreasuryTransactionStatus = "PARTIALLY_SIGNED"
	TreasuryTransactionStatusFullySigned     TreasuryTransactionStatus = "FULLY_SIGNED"
	TreasuryTransactionStatusExecuted        TreasuryTransactionStatus = "EXECUTED"
	TreasuryTransactionStatusRejected        TreasuryTransactionStatus = "REJECTED"
)

// Terminal statuses can never be left.
func (s TreasuryTransactionStatus) Terminal() bool {
	return s == TreasuryTransactionStatusExecuted || s == TreasuryTransactionStatusRejected
}

type VestingStatus string

const (
	VestingStatusNotStarted  VestingStatus = "not_started"
	VestingStatusCliffPeriod VestingStatus = "cliff_period"
	VestingStatusVesting     VestingStatus = "vesting"
	VestingStatusFullyVested VestingStatus = "fully_vested"
)

type IdempotencyStatus string

const (
	IdempotencyStatusStarted   IdempotencyStatus = "STARTED"
	IdempotencyStatusSucceeded IdempotencyStatus = "SUCCEEDED"
	IdempotencyStatusFailed    IdempotencyStatus = "FAILED"
)

const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

type FeedAction string

const (
	FeedActionCreate FeedAction = "C"
)

type UserRole string

const (
	UserRoleAdmin  UserRole = "A"
	UserRoleMember UserRole = "M"
)
