package workflow

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/taptapmatrix/tap_backend/config"
	"github.com/taptapmatrix/tap_backend/models"
	"github.com/taptapmatrix/tap_backend/utils"
	"gorm.io/gorm"
)

type TransferInput struct {
	SenderId       string
	RecipientId    string
	Amount         int64
	Category       models.TransferCategory
	Description    string
	IdempotencyKey string
}

type TransferResult struct {
	TransferId int       `json:"transfer_id"`
	NewBalance int64     `json:"new_balance"`
	Tax        TaxResult `json:"tax"`
	Replayed   bool      `json:"replayed"`
}

// Transfer executes a balance-verified, taxed, idempotent transfer between
// two users as one atomic unit: either the debit, the credit and the tax
// bookkeeping are all durably recorded, or none are.
func Transfer(ctx context.Context, db *gorm.DB, logger *logrus.Logger, input TransferInput, now time.Time) (*TransferResult, error) {
	if input.Amount <= 0 {
		return nil, models.ErrInvalidAmount
	}
	if !input.Category.Valid() {
		return nil, models.ErrInvalidCategory
	}
	if input.SenderId == input.RecipientId {
		return nil, models.ErrSelfTransfer
	}

	if _, err := models.GetUserById(ctx, db, input.SenderId); err != nil {
		if err == utils.ErrorRecordNotFound {
			return nil, models.ErrSenderNotFound
		}
		return nil, err
	}
	if _, err := models.GetUserById(ctx, db, input.RecipientId); err != nil {
		if err == utils.ErrorRecordNotFound {
			return nil, models.ErrRecipientNotFound
		}
		return nil, err
	}

	var result TransferResult
	// Serialize balance-check-then-debit for this sender. The lock lives on a
	// pinned connection wrapping the transaction, so it is only released after
	// the commit: a waiter that acquires it next always sees the debit.
	err := db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := AcquireSenderLock(conn, input.SenderId); err != nil {
			return err
		}
		defer ReleaseSenderLock(conn, input.SenderId)

		return conn.Transaction(func(tx *gorm.DB) error {
			return transferTx(ctx, tx, input, now, &result)
		})
	})
	if err != nil {
		// The rollback removed the STARTED idempotency row along with every
		// ledger effect; leave a failure record for audit, best effort.
		if input.IdempotencyKey != "" {
			recordTransferFailure(db, input.SenderId, input.IdempotencyKey, err)
		}
		config.LogError(logger, "transferWorkflow.go", "Transfer", "transaction", input.SenderId, err)
		return nil, err
	}
	return &result, nil
}

func transferTx(ctx context.Context, tx *gorm.DB, input TransferInput, now time.Time, result *TransferResult) error {
	if input.IdempotencyKey != "" {
		prior, err := BeginTransferIdempotency(tx, input.SenderId, input.IdempotencyKey)
		if err != nil {
			return err
		}
		if prior != nil {
			// Duplicate retry: return the recorded outcome, change nothing.
			result.Replayed = true
			if prior.TransferId != nil {
				result.TransferId = *prior.TransferId
			}
			if prior.NewBalance != nil {
				result.NewBalance = *prior.NewBalance
			}
			return nil
		}
	}

	// Rolling 24h cap, measured from now (wall clock, not calendar day).
	sentToday, err := models.DebitsInTrailing24h(tx, input.SenderId, now)
	if err != nil {
		return err
	}
	if sentToday+input.Amount > config.DailyTransferCap() {
		return models.ErrRateLimitExceeded
	}

	balance, err := models.GetBalance(ctx, tx, input.SenderId)
	if err != nil {
		return err
	}
	if balance < input.Amount {
		return models.ErrInsufficientBalance
	}

	tax, err := ComputeTax(input.Amount, input.Category, config.TaxWaiverActive(now))
	if err != nil {
		return err
	}

	transfer := models.Transfer{
		SenderId:      input.SenderId,
		RecipientId:   input.RecipientId,
		Category:      input.Category,
		GrossAmount:   input.Amount,
		NetAmount:     tax.ReceiverAmount,
		BurnAmount:    tax.Burn,
		ReserveAmount: tax.Reserve,
		TaxWaived:     tax.Waived,
		Description:   input.Description,
	}
	if err := tx.Create(&transfer).Error; err != nil {
		return err
	}

	// Sender pays the full gross amount; the recipient receives the net.
	if _, err := models.AppendEntry(tx, input.SenderId, -input.Amount, models.LedgerReasonTransferOut, models.LedgerReferenceTypeTransfer, transfer.ID, nil); err != nil {
		return err
	}
	if _, err := models.AppendEntry(tx, input.RecipientId, tax.ReceiverAmount, models.LedgerReasonTransferIn, models.LedgerReferenceTypeTransfer, transfer.ID, nil); err != nil {
		return err
	}
	// Burn and reserve land on system accounts: conserved in the ledger,
	// out of user circulation, never claimable.
	if tax.Burn > 0 {
		if _, err := models.AppendEntry(tx, models.SystemBurnUserId, tax.Burn, models.LedgerReasonTaxBurn, models.LedgerReferenceTypeTransfer, transfer.ID, nil); err != nil {
			return err
		}
	}
	if tax.Reserve > 0 {
		if _, err := models.AppendEntry(tx, models.SystemReserveUserId, tax.Reserve, models.LedgerReasonTaxReserve, models.LedgerReferenceTypeTransfer, transfer.ID, nil); err != nil {
			return err
		}
	}

	result.TransferId = transfer.ID
	result.NewBalance = balance - input.Amount
	result.Tax = tax

	if input.IdempotencyKey != "" {
		if err := MarkTransferIdempotencySucceeded(tx, input.SenderId, input.IdempotencyKey, transfer.ID, result.NewBalance); err != nil {
			return err
		}
	}

	return models.PublishToLedgerFeed(ctx, tx, transfer.CreatedAt, transfer.ID, models.LedgerReferenceTypeTransfer, transfer)
}

func recordTransferFailure(db *gorm.DB, senderId, key string, cause error) {
	msg := cause.Error()
	row := models.TransferIdempotencyKey{
		SenderId:       senderId,
		IdempotencyKey: key,
		Status:         models.IdempotencyStatusFailed,
		LastError:      &msg,
	}
	if err := db.Create(&row).Error; err != nil && !isDuplicateKeyErr(err) {
		return
	}
}
