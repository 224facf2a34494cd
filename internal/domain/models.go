// Package domain defines the persistence models for users, objectives, and
// key results. These types are mapped with GORM and form the core data layer
// of the OKR tracker.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account that owns objectives. Passwords are stored only
// as bcrypt hashes; the PasswordHash field is never serialized.
type User struct {
	ID           uint           `json:"id"       gorm:"primaryKey"`
	Username     string         `json:"username" gorm:"type:varchar(64);not null;uniqueIndex:ux_users_username"`
	PasswordHash string         `json:"-"        gorm:"type:varchar(128);not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"        gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Objective represents a goal owned by a user for a single fiscal period.
// A user can hold at most one objective per period (enforced by unique index).
//
// Fields:
//   - ID: autoincrement primary key.
//   - Title: normalized objective title (3–200 chars).
//   - PeriodName: normalized period label ("Q1 2025" … "Q4 2025" or "FY 2025").
//   - OwnerID: identifier of the owning user; part of the uniqueness constraint.
type Objective struct {
	ID         uint           `json:"id"          gorm:"primaryKey"`
	Title      string         `json:"title"       gorm:"type:varchar(200);not null"`
	PeriodName string         `json:"period_name" gorm:"type:varchar(16);not null;uniqueIndex:ux_objectives_owner_period"`
	OwnerID    uint           `json:"owner_id"    gorm:"not null;index;uniqueIndex:ux_objectives_owner_period"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-"           gorm:"index"`

	// Owner is the user this objective belongs to. Objectives are
	// cascade-deleted when the owning user is removed.
	Owner User `json:"-" gorm:"foreignKey:OwnerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Objective.
func (Objective) TableName() string { return "objectives" }

// KeyResult represents a measurable outcome attached to an objective.
//
// Fields:
//   - Title: normalized key-result title (3–200 chars).
//   - Metric: unit or measure label (1–100 chars).
//   - Target: goal value, strictly positive.
//   - Progress: current value, in [0, Target].
type KeyResult struct {
	ID          uint           `json:"id"           gorm:"primaryKey"`
	Title       string         `json:"title"        gorm:"type:varchar(200);not null"`
	Metric      string         `json:"metric"       gorm:"type:varchar(100);not null"`
	Target      float64        `json:"target"       gorm:"not null"`
	Progress    float64        `json:"progress"     gorm:"not null;default:0"`
	ObjectiveID uint           `json:"objective_id" gorm:"not null;index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"            gorm:"index"`

	// Objective is the parent goal. Key results are cascade-deleted when
	// their objective is removed.
	Objective Objective `json:"-" gorm:"foreignKey:ObjectiveID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for KeyResult.
func (KeyResult) TableName() string { return "key_results" }
