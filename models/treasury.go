package models

import (
	"time"
)

// TreasuryWallet is a shared pool gated by multisignature approval.
// Balance is a cached value mutated only inside the executing transaction,
// guarded by a balance-checked decrement.
type TreasuryWallet struct {
	ID                 int              `gorm:"primary_key" json:"id"`
	Name               string           `gorm:"size:100;not null;unique" json:"name"`
	Balance            int64            `gorm:"not null;default:0" json:"balance"`
	RequiredSignatures int              `gorm:"not null;default:1" json:"required_signatures"`
	IsActive           bool             `gorm:"not null;default:true" json:"is_active"`
	Signers            []TreasurySigner `gorm:"foreignKey:WalletId" json:"signers"`
	CreatedAt          time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type TreasurySigner struct {
	ID       int    `gorm:"primary_key" json:"id"`
	WalletId int    `gorm:"not null;index:uniq_wallet_signer,unique" json:"wallet_id"`
	UserId   string `gorm:"size:64;not null;index:uniq_wallet_signer,unique" json:"user_id"`
}

func (w TreasuryWallet) IsSigner(userId string) bool {
	for _, s := range w.Signers {
		if s.UserId == userId {
			return true
		}
	}
	return false
}

// TreasuryTransaction is a proposed or executed treasury movement.
//
// PENDING -> PARTIALLY_SIGNED -> FULLY_SIGNED -> EXECUTED, or REJECTED.
// EXECUTED and REJECTED are terminal; rows are never modified afterwards.
type TreasuryTransaction struct {
	ID              int                            `gorm:"primary_key" json:"id"`
	WalletId        int                            `gorm:"not null;index" json:"wallet_id"`
	Amount          int64                          `gorm:"not null" json:"amount"`
	Type            TreasuryTransactionType        `gorm:"size:20;not null" json:"type"`
	Status          TreasuryTransactionStatus      `gorm:"size:20;not null;index" json:"status"`
	Description     string                         `gorm:"size:255" json:"description"`
	RecipientUserId *string                        `gorm:"size:64;index" json:"recipient_user_id"`
	Signatures      []TreasuryTransactionSignature `gorm:"foreignKey:TransactionId" json:"signatures"`
	ExecutedAt      *time.Time                     `json:"executed_at"`
	RejectedReason  *string                        `gorm:"size:255" json:"rejected_reason"`
	CreatedAt       time.Time                      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time                      `gorm:"autoUpdateTime" json:"updated_at"`
}

// TreasuryTransactionSignature records one distinct signer's approval.
type TreasuryTransactionSignature struct {
	ID            int       `gorm:"primary_key" json:"id"`
	TransactionId int       `gorm:"not null;index:uniq_txn_signer,unique" json:"transaction_id"`
	SignerId      string    `gorm:"size:64;not null;index:uniq_txn_signer,unique" json:"signer_id"`
	SignedAt      time.Time `gorm:"autoCreateTime" json:"signed_at"`
}

func (t TreasuryTransaction) HasSignature(userId string) bool {
	for _, s := range t.Signatures {
		if s.SignerId == userId {
			return true
		}
	}
	return false
}

// StatusForSignatureCount maps a signature count onto the pre-execution
// status ladder. With a threshold of one (or less) the transaction is fully
// signed at creation.
func StatusForSignatureCount(signatures int, required int) TreasuryTransactionStatus {
	if required <= 1 || signatures >= required {
		return TreasuryTransactionStatusFullySigned
	}
	if signatures <= 1 {
		return TreasuryTransactionStatusPending
	}
	return TreasuryTransactionStatusPartiallySigned
}

// CanExecute guards the EXECUTED transition: only a fully signed,
// non-terminal transaction may execute.
func (t TreasuryTransaction) CanExecute() error {
	if t.Status.Terminal() {
		return ErrTransactionTerminal
	}
	if t.Status != TreasuryTransactionStatusFullySigned {
		return ErrTransactionNotSigned
	}
	return nil
}

// CanSign guards signature recording.
func (t TreasuryTransaction) CanSign(wallet TreasuryWallet, signerId string) error {
	if t.Status.Terminal() {
		return ErrTransactionTerminal
	}
	if !wallet.IsSigner(signerId) {
		return ErrNotASigner
	}
	if t.HasSignature(signerId) {
		return ErrAlreadySigned
	}
	return nil
}
