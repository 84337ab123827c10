package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is the customer a quote is issued to.
type Client struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	Email     *string        `gorm:"column:email"`
	Phone     *string        `gorm:"column:phone"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// HasEmail reports whether the client can receive quote emails.
func (c Client) HasEmail() bool {
	return c.Email != nil && *c.Email != ""
}
