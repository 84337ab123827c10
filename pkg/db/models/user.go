package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the salesperson who owns a quote.
type User struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	Email     string         `gorm:"column:email;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}
