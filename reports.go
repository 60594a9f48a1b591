package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taptapmatrix/tap_backend/config"
	"github.com/taptapmatrix/tap_backend/models"
	"github.com/taptapmatrix/tap_backend/utils"
	"github.com/xuri/excelize/v2"
)

type ledgerExportRequest struct {
	UserId string `json:"user_id" binding:"required"`
	From   string `json:"from" binding:"required"`
	To     string `json:"to" binding:"required"`
}

// ledgerExportHandler builds an xlsx statement for one user over a date
// range, uploads it to GCS and returns a V4 signed download URL. Admin only.
func ledgerExportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := sessionUser(c); !ok {
			return
		}
		if !sessionIsAdmin(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req ledgerExportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		from, err := time.Parse(time.RFC3339, req.From)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
		to, err := time.Parse(time.RFC3339, req.To)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}
		if !to.After(from) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be after from"})
			return
		}

		logger := config.GetLogger()
		db := config.GetDB()

		entries, err := models.ListEntriesForUserBetween(c.Request.Context(), db, req.UserId, from, to)
		if err != nil {
			config.LogError(logger, "reports.go", "ledgerExportHandler", "query entries", req, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read ledger"})
			return
		}

		f := excelize.NewFile()
		sheetName := "Statement"
		idx, err := f.NewSheet(sheetName)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build workbook"})
			return
		}
		f.SetActiveSheet(idx)
		_ = f.DeleteSheet("Sheet1")

		headings := []string{"EntryId", "CreatedAt", "Amount", "Reason", "ReferenceType", "ReferenceId", "WalletId", "RunningBalance"}
		col := 'A'
		for _, h := range headings {
			f.SetCellValue(sheetName, string(col)+"1", h)
			col++
		}

		var running int64
		for i, e := range entries {
			running += e.Amount
			row := fmt.Sprint(i + 2)
			wallet := ""
			if e.WalletId != nil {
				wallet = *e.WalletId
			}
			f.SetCellValue(sheetName, "A"+row, e.ID)
			f.SetCellValue(sheetName, "B"+row, e.CreatedAt.UTC().Format(time.RFC3339))
			f.SetCellValue(sheetName, "C"+row, e.Amount)
			f.SetCellValue(sheetName, "D"+row, string(e.Reason))
			f.SetCellValue(sheetName, "E"+row, string(e.ReferenceType))
			f.SetCellValue(sheetName, "F"+row, e.ReferenceId)
			f.SetCellValue(sheetName, "G"+row, wallet)
			f.SetCellValue(sheetName, "H"+row, running)
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not serialize workbook"})
			return
		}

		objectKey := fmt.Sprintf("statements/%s/%s-%s.xlsx", req.UserId, from.Format("20060102"), uuid.NewString()[:8])
		contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		if err := utils.UploadObjectToGCS(c.Request.Context(), objectKey, contentType, buf.Bytes()); err != nil {
			config.LogError(logger, "reports.go", "ledgerExportHandler", "upload", objectKey, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not upload statement"})
			return
		}

		signed, err := utils.SignDownload(objectKey, 15*time.Minute)
		if err != nil {
			config.LogError(logger, "reports.go", "ledgerExportHandler", "sign", objectKey, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not sign download"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"user_id":     req.UserId,
			"entry_count": len(entries),
			"object_key":  objectKey,
			"url":         signed.DownloadURL,
			"expires_at":  signed.ExpiresAt.Format(time.RFC3339),
		})
	}
}
