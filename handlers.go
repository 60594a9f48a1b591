package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/taptapmatrix/tap_backend/config"
	"github.com/taptapmatrix/tap_backend/models"
	"github.com/taptapmatrix/tap_backend/utils"
	"github.com/taptapmatrix/tap_backend/workflow"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("transfercategory", func(fl validator.FieldLevel) bool {
			return models.TransferCategory(fl.Field().String()).Valid()
		})
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		db := config.GetDB()
		user, err := models.GetUserByUsername(c.Request.Context(), db, req.Username)
		if err != nil || !user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if err := utils.ComparePassword(user.Password, req.Password); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token, err := utils.JwtGenerate(user.ID, string(user.Role))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
			return
		}
		if err := config.SetRedisValue("Token:"+token, user.Username, utils.TokenLifespan()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session store unavailable"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":    token,
			"user_id":  user.ID,
			"username": user.Username,
			"role":     user.Role,
		})
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := utils.GetTokenFromContext(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		_ = config.RemoveRedisKey("Token:" + token)
		c.Status(http.StatusNoContent)
	}
}

// registerHandler creates a member account. Admin only; the seeded admin
// bootstraps the first session.
func registerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := sessionUser(c); !ok {
			return
		}
		if !sessionIsAdmin(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req models.NewUser
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user, err := models.CreateUser(c.Request.Context(), config.GetDB(), req, models.UserRoleMember)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrInvalidPhone):
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			case isDuplicateUserErr(err):
				c.JSON(http.StatusConflict, gin.H{"error": "username or email already taken"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
			}
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

func isDuplicateUserErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// sessionUser returns the acting user id; aborts with 401 when missing.
func sessionUser(c *gin.Context) (string, bool) {
	userId, ok := utils.GetUserIdFromContext(c.Request.Context())
	if !ok || userId == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return userId, true
}

func sessionIsAdmin(c *gin.Context) bool {
	isAdmin, ok := utils.GetIsAdminFromContext(c.Request.Context())
	return ok && isAdmin
}

func balanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := sessionUser(c)
		if !ok {
			return
		}
		target := c.Param("id")
		if target != userId && !sessionIsAdmin(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		balance, err := models.GetBalance(c.Request.Context(), config.GetDB(), target)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read balance"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": target, "balance": balance})
	}
}

func statementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := sessionUser(c)
		if !ok {
			return
		}
		target := c.Param("id")
		if target != userId && !sessionIsAdmin(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		if page < 1 {
			page = 1
		}
		entries, err := models.ListEntriesForUser(c.Request.Context(), config.GetDB(), target, config.SearchLimit, (page-1)*config.SearchLimit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read ledger"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"user_id": target,
			"page":    page,
			"entries": entries,
		})
	}
}

type transferRequest struct {
	RecipientId    string `json:"recipient_id" binding:"required"`
	Amount         int64  `json:"amount" binding:"required"`
	Category       string `json:"category" binding:"required,transfercategory"`
	Description    string `json:"description"`
	IdempotencyKey string `json:"idempotency_key" binding:"required"`
}

func transferHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := sessionUser(c)
		if !ok {
			return
		}
		var req transferRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		ctx, span := tracer.Start(c.Request.Context(), "tap.transfer")
		defer span.End()

		result, err := workflow.Transfer(ctx, config.GetDB(), config.GetLogger(), workflow.TransferInput{
			SenderId:       userId,
			RecipientId:    req.RecipientId,
			Amount:         req.Amount,
			Category:       models.TransferCategory(req.Category),
			Description:    req.Description,
			IdempotencyKey: req.IdempotencyKey,
		}, time.Now().UTC())
		if err != nil {
			c.JSON(transferErrStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func transferErrStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidCategory),
		errors.Is(err, models.ErrSelfTransfer):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrSenderNotFound),
		errors.Is(err, models.ErrRecipientNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, workflow.ErrIdempotencyInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type taxPreviewRequest struct {
	Amount   int64  `json:"amount" binding:"required"`
	Category string `json:"category" binding:"required"`
}

func taxPreviewHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := sessionUser(c); !ok {
			return
		}
		var req taxPreviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		result, err := workflow.ComputeTax(req.Amount, models.TransferCategory(req.Category), config.TaxWaiverActive(time.Now().UTC()))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func vestingScheduleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := sessionUser(c)
		if !ok {
			return
		}
		scheduleId, ok := pathInt(c, "id")
		if !ok {
			return
		}

		var schedule models.VestingSchedule
		if err := config.GetDB().WithContext(c.Request.Context()).
			Where("id = ?", scheduleId).Take(&schedule).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "schedule not found"})
			return
		}
		if schedule.UserId != userId && !sessionIsAdmin(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		computed := schedule.ComputeVested(time.Now().UTC())
		c.JSON(http.StatusOK, gin.H{"schedule": schedule, "computed": computed})
	}
}

type vestingClaimRequest struct {
	Amount *int64 `json:"amount"`
}

func vestingClaimHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := sessionUser(c)
		if !ok {
			return
		}
		scheduleId, ok := pathInt(c, "id")
		if !ok {
			return
		}
		// Empty body means "claim everything claimable".
		var req vestingClaimRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
				return
			}
		}

		db := config.GetDB()
		var schedule models.VestingSchedule
		if err := db.WithContext(c.Request.Context()).
			Where("id = ?", scheduleId).Take(&schedule).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "schedule not found"})
			return
		}
		if schedule.UserId != userId && !sessionIsAdmin(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		result, err := workflow.ClaimVesting(c.Request.Context(), db, config.GetLogger(), scheduleId, req.Amount, false, time.Now().UTC())
		if err != nil {
			c.JSON(vestingErrStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// vestingRevokeHandler stops further vesting on a schedule. Already-claimed
// amounts are untouched. Admin only.
func vestingRevokeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := sessionUser(c); !ok {
			return
		}
		if !sessionIsAdmin(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		scheduleId, ok := pathInt(c, "id")
		if !ok {
			return
		}
		if err := workflow.RevokeVestingSchedule(c.Request.Context(), config.GetDB(), scheduleId); err != nil {
			c.JSON(vestingErrStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"schedule_id": scheduleId, "revoked": true})
	}
}

func vestingErrStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrScheduleRevoked),
		errors.Is(err, models.ErrNotStarted),
		errors.Is(err, models.ErrCliffPeriod),
		errors.Is(err, models.ErrNothingClaimable),
		errors.Is(err, models.ErrInvalidAmount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, utils.ErrorRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type treasuryInitiateRequest struct {
	WalletId        int    `json:"wallet_id" binding:"required"`
	Amount          int64  `json:"amount" binding:"required"`
	Type            string `json:"type" binding:"required"`
	Description     string `json:"description"`
	RecipientUserId string `json:"recipient_user_id"`
}

func treasuryInitiateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := sessionUser(c)
		if !ok {
			return
		}
		var req treasuryInitiateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		var recipient *string
		if req.RecipientUserId != "" {
			recipient = &req.RecipientUserId
		}
		txn, err := workflow.InitiateTreasuryTransaction(c.Request.Context(), config.GetDB(), config.GetLogger(),
			req.WalletId, req.Amount, models.TreasuryTransactionType(req.Type), req.Description, recipient, userId)
		if err != nil {
			c.JSON(treasuryErrStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, txn)
	}
}

func treasurySignHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := sessionUser(c)
		if !ok {
			return
		}
		txnId, ok := pathInt(c, "id")
		if !ok {
			return
		}
		txn, err := workflow.SignTreasuryTransaction(c.Request.Context(), config.GetDB(), config.GetLogger(), txnId, userId)
		if err != nil {
			c.JSON(treasuryErrStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, txn)
	}
}

func treasuryExecuteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := sessionUser(c); !ok {
			return
		}
		txnId, ok := pathInt(c, "id")
		if !ok {
			return
		}
		txn, err := workflow.ExecuteTreasuryTransaction(c.Request.Context(), config.GetDB(), config.GetLogger(), txnId)
		if err != nil {
			c.JSON(treasuryErrStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, txn)
	}
}

type treasuryRejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func treasuryRejectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := sessionUser(c); !ok {
			return
		}
		txnId, ok := pathInt(c, "id")
		if !ok {
			return
		}
		var req treasuryRejectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		txn, err := workflow.RejectTreasuryTransaction(c.Request.Context(), config.GetDB(), txnId, req.Reason)
		if err != nil {
			c.JSON(treasuryErrStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, txn)
	}
}

func treasuryErrStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrWalletInactive):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrWalletNotFound),
		errors.Is(err, models.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNotASigner):
		return http.StatusForbidden
	case errors.Is(err, models.ErrAlreadySigned),
		errors.Is(err, models.ErrTransactionTerminal),
		errors.Is(err, models.ErrTransactionNotSigned):
		return http.StatusConflict
	case errors.Is(err, models.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type withdrawalRequest struct {
	Amount        int64  `json:"amount" binding:"required"`
	WalletAddress string `json:"wallet_address"`
}

func withdrawalHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := sessionUser(c)
		if !ok {
			return
		}
		var req withdrawalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		result, err := workflow.Withdraw(c.Request.Context(), config.GetDB(), config.GetLogger(), userId, req.Amount, req.WalletAddress)
		if err != nil {
			c.JSON(withdrawalErrStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func withdrawalErrStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrWalletAddressMissing):
		return http.StatusBadRequest
	case errors.Is(err, utils.ErrorRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type outboxReplayRequest struct {
	RecordId int `json:"record_id"`
}

// outboxReplayHandler re-queues a DEAD or FAILED outbox record for another
// publish attempt. Admin only.
func outboxReplayHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := sessionUser(c); !ok {
			return
		}
		if !sessionIsAdmin(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req outboxReplayRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.RecordId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "record_id is required"})
			return
		}

		now := time.Now().UTC()
		if err := config.GetDB().WithContext(c.Request.Context()).
			Model(&models.LedgerEventRecord{}).
			Where("id = ?", req.RecordId).
			Updates(map[string]interface{}{
				"publish_status":     models.OutboxPublishStatusFailed,
				"next_attempt_at":    &now,
				"locked_at":          nil,
				"locked_by":          nil,
				"last_publish_error": nil,
			}).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"record_id":       req.RecordId,
			"publish_status":  models.OutboxPublishStatusFailed,
			"next_attempt_at": now.Format(time.RFC3339Nano),
		})
	}
}

func pathInt(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return n, true
}
