package models

import "time"

// Transfer is the immutable header row for one executed transfer. The four
// possible ledger effects (debit, credit, burn, reserve) all reference it.
type Transfer struct {
	ID            int              `gorm:"primary_key" json:"id"`
	SenderId      string           `gorm:"size:64;not null;index" json:"sender_id"`
	RecipientId   string           `gorm:"size:64;not null;index" json:"recipient_id"`
	Category      TransferCategory `gorm:"size:20;not null" json:"category"`
	GrossAmount   int64            `gorm:"not null" json:"gross_amount"`
	NetAmount     int64            `gorm:"not null" json:"net_amount"`
	BurnAmount    int64            `gorm:"not null;default:0" json:"burn_amount"`
	ReserveAmount int64            `gorm:"not null;default:0" json:"reserve_amount"`
	TaxWaived     bool             `gorm:"not null;default:false" json:"tax_waived"`
	Description   string           `gorm:"size:255" json:"description"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

// Withdrawal records a personal (non-treasury) external-facing withdrawal.
type Withdrawal struct {
	ID            int       `gorm:"primary_key" json:"id"`
	UserId        string    `gorm:"size:64;not null;index" json:"user_id"`
	Amount        int64     `gorm:"not null" json:"amount"`
	WalletAddress string    `gorm:"size:128;not null" json:"wallet_address"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}
