package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collections/pkg/db/pagination"
	"gorm.io/datatypes"
)

// ErrorLog is one failed write captured for later diagnosis.
type ErrorLog struct {
	ID          snowflake.ID   `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID   `gorm:"index" json:"organization_id"`
	System      string         `gorm:"not null" json:"system"`
	Transaction string         `gorm:"column:transaction_name;not null" json:"transaction"`
	Table       string         `gorm:"column:table_name;not null" json:"table"`
	Data        datatypes.JSON `json:"data,omitempty"`
	Error       string         `gorm:"not null" json:"error"`
	ActorID     *snowflake.ID  `json:"actor_id,omitempty"`
	RequestID   string         `json:"request_id,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
}

func (ErrorLog) TableName() string { return "error_logs" }

// Entry is what callers hand to the sink. Data is serialized as JSON.
type Entry struct {
	Transaction string
	Table       string
	Data        any
	Err         error
}

// Cursor marks the last row of a page.
type Cursor = pagination.Cursor

type ListFilter struct {
	OrgID       snowflake.ID
	Transaction string
	Table       string
	Cursor      *Cursor
	Limit       int
}
