package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atvirokodosprendimai/clinicseed/internal/domain"
	"gorm.io/gorm"
)

var _ domain.LoginDirectory = (*Store)(nil)

type UserModel struct {
	ID     uint   `gorm:"primaryKey"`
	RoleID uint   `gorm:"not null"`
	Email  string `gorm:"uniqueIndex;not null"`
}

func (UserModel) TableName() string { return "users" }

type CredentialModel struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       uint   `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	TokenDigest  string `gorm:"uniqueIndex;not null"`
}

func (CredentialModel) TableName() string { return "auth_credentials" }

func (s *Store) FindLogin(ctx context.Context, email string) (domain.StoredLogin, error) {
	var u UserModel
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.StoredLogin{}, domain.ErrLoginNotFound
	}
	if err != nil {
		return domain.StoredLogin{}, fmt.Errorf("find user: %w", err)
	}

	var c CredentialModel
	err = s.db.WithContext(ctx).Where("user_id = ?", u.ID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.StoredLogin{}, domain.ErrLoginNotFound
	}
	if err != nil {
		return domain.StoredLogin{}, fmt.Errorf("find credential: %w", err)
	}

	return domain.StoredLogin{
		UserID:       u.ID,
		Email:        u.Email,
		PasswordHash: c.PasswordHash,
		TokenDigest:  c.TokenDigest,
	}, nil
}
