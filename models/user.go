package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taptapmatrix/tap_backend/config"
	"github.com/taptapmatrix/tap_backend/utils"
	"gorm.io/gorm"
)

type User struct {
	ID            string    `gorm:"primary_key;size:64" json:"id"`
	Username      string    `gorm:"size:100;not null;unique" json:"username" binding:"required"`
	DisplayName   string    `gorm:"size:100;not null" json:"display_name"`
	Email         *string   `gorm:"size:100;unique" json:"email"`
	Phone         *string   `gorm:"size:20" json:"phone"`
	Password      string    `gorm:"size:255;not null" json:"-"`
	Role          UserRole  `gorm:"type:enum('A', 'M');default:M" json:"role"`
	WalletAddress *string   `gorm:"size:128" json:"wallet_address"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username      string `json:"username" binding:"required,min=3,max=100"`
	DisplayName   string `json:"display_name" binding:"required"`
	Email         string `json:"email" binding:"omitempty,email"`
	Phone         string `json:"phone"`
	Password      string `json:"password" binding:"required,min=8"`
	WalletAddress string `json:"wallet_address"`
}

/*
caches:
	User:$username
*/

func (user User) BeforeCreate(tx *gorm.DB) error {
	if user.ID == "" {
		tx.Statement.SetColumn("ID", uuid.NewString())
	}
	return nil
}

func (user User) RemoveInstanceRedis() error {
	return config.RemoveRedisKey("User:" + user.Username)
}

func GetUserById(ctx context.Context, db *gorm.DB, userId string) (*User, error) {
	var user User
	if err := db.WithContext(ctx).Where("id = ?", userId).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

func GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*User, error) {
	var user User
	exists, err := config.GetRedisObject("User:"+username, &user)
	if err != nil {
		return nil, err
	}
	if exists {
		return &user, nil
	}
	if err := db.WithContext(ctx).Where("username = ?", username).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	_ = config.SetRedisObject("User:"+user.Username, user, 24*time.Hour)
	return &user, nil
}

func CreateUser(ctx context.Context, db *gorm.DB, input NewUser, role UserRole) (*User, error) {
	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		ID:          uuid.NewString(),
		Username:    strings.ToLower(strings.TrimSpace(input.Username)),
		DisplayName: input.DisplayName,
		Password:    string(hashed),
		Role:        role,
		IsActive:    true,
	}
	if e := strings.TrimSpace(input.Email); e != "" {
		user.Email = &e
	}
	if p := strings.TrimSpace(input.Phone); p != "" {
		// Stored in E.164 so lookups never depend on input formatting.
		normalized, err := utils.FormatPhoneNumber(p, utils.DefaultRegion)
		if err != nil {
			return nil, ErrInvalidPhone
		}
		user.Phone = &normalized
	}
	if w := strings.TrimSpace(input.WalletAddress); w != "" {
		user.WalletAddress = &w
	}

	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
