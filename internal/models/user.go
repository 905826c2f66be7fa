// internal/models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	FirstName    string        `json:"first_name" gorm:"size:50;not null"`
	LastName     string        `json:"last_name" gorm:"size:50;not null"`
	Email        string        `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string        `json:"-" gorm:"size:255;not null"`
	Role         UserRole      `json:"role" gorm:"type:varchar(20);not null;index"`
	Phone        string        `json:"phone,omitempty" gorm:"size:30"`
	Avatar       *Image        `json:"avatar,omitempty" gorm:"type:jsonb;serializer:json"`
	Addresses    []UserAddress `json:"addresses" gorm:"type:jsonb;serializer:json"`
	IsActive     bool          `json:"is_active" gorm:"not null"`
	LastLoginAt  *time.Time    `json:"last_login_at"`
}

type UserAddress struct {
	ID uuid.UUID `json:"id"`
	Address
	Label     string `json:"label,omitempty"`
	IsDefault bool   `json:"is_default"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// AddAddress stores a new address. The first address, or one flagged as
// default, becomes the only default.
func (u *User) AddAddress(addr UserAddress) UserAddress {
	if addr.ID == uuid.Nil {
		addr.ID = uuid.New()
	}
	if len(u.Addresses) == 0 {
		addr.IsDefault = true
	}
	if addr.IsDefault {
		for i := range u.Addresses {
			u.Addresses[i].IsDefault = false
		}
	}
	u.Addresses = append(u.Addresses, addr)
	return addr
}

func (u *User) DefaultAddress() *UserAddress {
	for i := range u.Addresses {
		if u.Addresses[i].IsDefault {
			return &u.Addresses[i]
		}
	}
	return nil
}
