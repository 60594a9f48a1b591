package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/taptapmatrix/tap_backend/config"
	"github.com/taptapmatrix/tap_backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InitiateTreasuryTransaction proposes a treasury movement. The initiator's
// signature is recorded immediately; with a threshold of one the transaction
// is born fully signed.
func InitiateTreasuryTransaction(ctx context.Context, db *gorm.DB, logger *logrus.Logger, walletId int, amount int64, txnType models.TreasuryTransactionType, description string, recipientUserId *string, initiatorId string) (*models.TreasuryTransaction, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}
	if !txnType.Valid() {
		return nil, errors.New("invalid treasury transaction type")
	}

	var txn models.TreasuryTransaction
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wallet models.TreasuryWallet
		if err := tx.Preload("Signers").Where("id = ?", walletId).Take(&wallet).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrWalletNotFound
			}
			return err
		}
		if !wallet.IsActive {
			return models.ErrWalletInactive
		}
		if !wallet.IsSigner(initiatorId) {
			return models.ErrNotASigner
		}
		// First balance gate; checked again under lock at execution time.
		if txnType.Withdrawing() && wallet.Balance < amount {
			return models.ErrInsufficientBalance
		}

		txn = models.TreasuryTransaction{
			WalletId:        wallet.ID,
			Amount:          amount,
			Type:            txnType,
			Status:          models.StatusForSignatureCount(1, wallet.RequiredSignatures),
			Description:     description,
			RecipientUserId: recipientUserId,
		}
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}

		signature := models.TreasuryTransactionSignature{
			TransactionId: txn.ID,
			SignerId:      initiatorId,
		}
		if err := tx.Create(&signature).Error; err != nil {
			return err
		}
		txn.Signatures = []models.TreasuryTransactionSignature{signature}
		return nil
	})
	if err != nil {
		config.LogError(logger, "treasuryWorkflow.go", "InitiateTreasuryTransaction", "transaction", walletId, err)
		return nil, err
	}
	return &txn, nil
}

// SignTreasuryTransaction records one distinct signer's approval and moves
// the status ladder toward FULLY_SIGNED.
func SignTreasuryTransaction(ctx context.Context, db *gorm.DB, logger *logrus.Logger, transactionId int, signerId string) (*models.TreasuryTransaction, error) {
	var txn models.TreasuryTransaction
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Signatures").
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", transactionId).Take(&txn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrTransactionNotFound
			}
			return err
		}

		var wallet models.TreasuryWallet
		if err := tx.Preload("Signers").Where("id = ?", txn.WalletId).Take(&wallet).Error; err != nil {
			return err
		}

		if err := txn.CanSign(wallet, signerId); err != nil {
			return err
		}

		signature := models.TreasuryTransactionSignature{
			TransactionId: txn.ID,
			SignerId:      signerId,
		}
		if err := tx.Create(&signature).Error; err != nil {
			return err
		}
		txn.Signatures = append(txn.Signatures, signature)

		txn.Status = models.StatusForSignatureCount(len(txn.Signatures), wallet.RequiredSignatures)
		return tx.Model(&models.TreasuryTransaction{}).
			Where("id = ?", txn.ID).
			Update("status", txn.Status).Error
	})
	if err != nil {
		config.LogError(logger, "treasuryWorkflow.go", "SignTreasuryTransaction", "transaction", transactionId, err)
		return nil, err
	}
	return &txn, nil
}

// ExecuteTreasuryTransaction performs the external-facing execution step.
// The wallet balance is re-checked under a guarded decrement to handle
// concurrent drains; on insufficiency the transaction flips to REJECTED
// instead of partially executing. The decrement, the status flip and any
// recipient ledger credit commit atomically.
func ExecuteTreasuryTransaction(ctx context.Context, db *gorm.DB, logger *logrus.Logger, transactionId int) (*models.TreasuryTransaction, error) {
	var txn models.TreasuryTransaction
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", transactionId).Take(&txn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrTransactionNotFound
			}
			return err
		}

		if err := txn.CanExecute(); err != nil {
			return err
		}

		now := time.Now().UTC()

		if txn.Type.Withdrawing() {
			res := tx.Model(&models.TreasuryWallet{}).
				Where("id = ? AND is_active = true AND balance >= ?", txn.WalletId, txn.Amount).
				Update("balance", gorm.Expr("balance - ?", txn.Amount))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Balance drained between sign-off and execution: terminal
				// REJECTED, wallet untouched.
				reason := "insufficient wallet balance at execution"
				txn.Status = models.TreasuryTransactionStatusRejected
				txn.RejectedReason = &reason
				return tx.Model(&models.TreasuryTransaction{}).
					Where("id = ?", txn.ID).
					Updates(map[string]interface{}{
						"status":          models.TreasuryTransactionStatusRejected,
						"rejected_reason": &reason,
					}).Error
			}
		} else {
			if err := tx.Model(&models.TreasuryWallet{}).
				Where("id = ?", txn.WalletId).
				Update("balance", gorm.Expr("balance + ?", txn.Amount)).Error; err != nil {
				return err
			}
		}

		if txn.RecipientUserId != nil && txn.Type.Withdrawing() {
			if _, err := models.AppendEntry(tx, *txn.RecipientUserId, txn.Amount, models.LedgerReasonTreasuryWithdrawal, models.LedgerReferenceTypeTreasuryTransaction, txn.ID, nil); err != nil {
				return err
			}
		}

		txn.Status = models.TreasuryTransactionStatusExecuted
		txn.ExecutedAt = &now
		if err := tx.Model(&models.TreasuryTransaction{}).
			Where("id = ?", txn.ID).
			Updates(map[string]interface{}{
				"status":      models.TreasuryTransactionStatusExecuted,
				"executed_at": &now,
			}).Error; err != nil {
			return err
		}

		return models.PublishToLedgerFeed(ctx, tx, now, txn.ID, models.LedgerReferenceTypeTreasuryTransaction, txn)
	})
	if err != nil {
		config.LogError(logger, "treasuryWorkflow.go", "ExecuteTreasuryTransaction", "transaction", transactionId, err)
		return nil, err
	}
	return &txn, nil
}

// RejectTreasuryTransaction is the explicit veto path. Terminal states are
// immutable.
func RejectTreasuryTransaction(ctx context.Context, db *gorm.DB, transactionId int, reason string) (*models.TreasuryTransaction, error) {
	var txn models.TreasuryTransaction
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", transactionId).Take(&txn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrTransactionNotFound
			}
			return err
		}
		if txn.Status.Terminal() {
			return models.ErrTransactionTerminal
		}
		txn.Status = models.TreasuryTransactionStatusRejected
		txn.RejectedReason = &reason
		return tx.Model(&models.TreasuryTransaction{}).
			Where("id = ?", txn.ID).
			Updates(map[string]interface{}{
				"status":          models.TreasuryTransactionStatusRejected,
				"rejected_reason": &reason,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

type WithdrawResult struct {
	WithdrawalId int   `json:"withdrawal_id"`
	NewBalance   int64 `json:"new_balance"`
}

// Withdraw is the personal (non-treasury) path: balance-gated, no signature
// requirement, records the external wallet reference on the debit.
func Withdraw(ctx context.Context, db *gorm.DB, logger *logrus.Logger, userId string, amount int64, walletAddress string) (*WithdrawResult, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}
	walletAddress = strings.TrimSpace(walletAddress)
	user, err := models.GetUserById(ctx, db, userId)
	if err != nil {
		return nil, err
	}
	if walletAddress == "" {
		if user.WalletAddress == nil {
			return nil, models.ErrWalletAddressMissing
		}
		walletAddress = *user.WalletAddress
	} else if config.StrictWithdrawalGating() {
		// Strict mode only pays out to the on-file address.
		if user.WalletAddress == nil || *user.WalletAddress != walletAddress {
			return nil, models.ErrWalletAddressMissing
		}
	}

	var result WithdrawResult
	// Lock on the pinned connection, not the transaction, so the release
	// happens after the commit and waiters see the committed debit.
	err = db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := AcquireSenderLock(conn, userId); err != nil {
			return err
		}
		defer ReleaseSenderLock(conn, userId)

		return conn.Transaction(func(tx *gorm.DB) error {
			return withdrawTx(ctx, tx, userId, amount, walletAddress, &result)
		})
	})
	if err != nil {
		config.LogError(logger, "treasuryWorkflow.go", "Withdraw", "transaction", userId, err)
		return nil, err
	}
	return &result, nil
}

func withdrawTx(ctx context.Context, tx *gorm.DB, userId string, amount int64, walletAddress string, result *WithdrawResult) error {
	balance, err := models.GetBalance(ctx, tx, userId)
	if err != nil {
		return err
	}
	if balance < amount {
		return models.ErrInsufficientBalance
	}

	withdrawal := models.Withdrawal{
		UserId:        userId,
		Amount:        amount,
		WalletAddress: walletAddress,
	}
	if err := tx.Create(&withdrawal).Error; err != nil {
		return err
	}

	if _, err := models.AppendEntry(tx, userId, -amount, models.LedgerReasonWithdrawal, models.LedgerReferenceTypeWithdrawal, withdrawal.ID, &walletAddress); err != nil {
		return err
	}

	*result = WithdrawResult{
		WithdrawalId: withdrawal.ID,
		NewBalance:   balance - amount,
	}
	return models.PublishToLedgerFeed(ctx, tx, withdrawal.CreatedAt, withdrawal.ID, models.LedgerReferenceTypeWithdrawal, withdrawal)
}
