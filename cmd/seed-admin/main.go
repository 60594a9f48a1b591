// seed-admin creates or updates the admin console user (username: tapAdmin).
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
//
// The password defaults below are for development; override with
// ADMIN_USERNAME / ADMIN_PASSWORD in any shared environment.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/taptapmatrix/tap_backend/config"
	"github.com/taptapmatrix/tap_backend/models"
	"github.com/taptapmatrix/tap_backend/utils"
	"gorm.io/gorm"
)

const (
	defaultAdminUsername = "tapAdmin"
	defaultAdminPassword = "T@pT@pAdmin1"
	adminDisplayName     = "TAP Admin"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	// Ensure schema is up-to-date before the first insert.
	models.MigrateTable()

	adminUsername := os.Getenv("ADMIN_USERNAME")
	if adminUsername == "" {
		adminUsername = defaultAdminUsername
	}
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = defaultAdminPassword
	}

	hashed, err := utils.HashPassword(adminPassword)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	hashedStr := string(hashed)

	var existing models.User
	err = db.WithContext(ctx).Model(&models.User{}).Where("username = ?", adminUsername).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
			os.Exit(1)
		}
		// Create new admin user
		u := models.User{
			Username:    adminUsername,
			DisplayName: adminDisplayName,
			Password:    hashedStr,
			IsActive:    true,
			Role:        models.UserRoleAdmin,
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created admin user: username=%q (role=Admin)\n", adminUsername)
		return
	}

	// Update existing user: ensure password and admin role
	if err := db.WithContext(ctx).Model(&models.User{}).Where("username = ?", adminUsername).Updates(map[string]any{
		"password":     hashedStr,
		"display_name": adminDisplayName,
		"is_active":    true,
		"role":         models.UserRoleAdmin,
	}).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
		os.Exit(1)
	}
	_ = existing.RemoveInstanceRedis()
	fmt.Printf("Updated admin user: username=%q (role=Admin)\n", adminUsername)
}
