package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collections/pkg/db/pagination"
	"gorm.io/datatypes"
)

// EntityKind names the record a change log entry belongs to.
type EntityKind string

const (
	EntityLocation    EntityKind = "location"
	EntitySection     EntityKind = "section"
	EntityStall       EntityKind = "stall"
	EntityNonrentable EntityKind = "nonrentable"
	EntityRenter      EntityKind = "renter"
	EntityInvoice     EntityKind = "invoice"
	EntityAccount     EntityKind = "account"
)

func EntityKinds() []EntityKind {
	return []EntityKind{
		EntityLocation,
		EntitySection,
		EntityStall,
		EntityNonrentable,
		EntityRenter,
		EntityInvoice,
		EntityAccount,
	}
}

func ParseEntityKind(raw string) (EntityKind, error) {
	kind := EntityKind(strings.ToLower(strings.TrimSpace(raw)))
	if !kind.Valid() {
		return "", ErrInvalidEntityKind
	}
	return kind, nil
}

func (k EntityKind) Valid() bool {
	for _, candidate := range EntityKinds() {
		if k == candidate {
			return true
		}
	}
	return false
}

type EntityRef struct {
	Kind EntityKind   `json:"kind"`
	ID   snowflake.ID `json:"id"`
}

func (r EntityRef) Validate() error {
	if !r.Kind.Valid() {
		return ErrInvalidEntityKind
	}
	if r.ID == 0 {
		return ErrInvalidEntityID
	}
	return nil
}

// Field is one named scalar of a record snapshot.
type Field struct {
	Name  string
	Value any
}

// Values is an ordered record snapshot; diffs follow its order.
type Values []Field

func (v Values) Lookup(name string) (any, bool) {
	for _, f := range v {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

type FieldDiff struct {
	Field    string `json:"field"`
	OldValue any    `json:"old_value"`
	NewValue any    `json:"new_value"`
}

type ChangeLog struct {
	ID         snowflake.ID                   `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID                   `gorm:"not null;index:idx_change_logs_entity,priority:1" json:"organization_id"`
	EntityKind EntityKind                     `gorm:"type:varchar(32);not null;index:idx_change_logs_entity,priority:2" json:"entity_kind"`
	EntityID   snowflake.ID                   `gorm:"not null;index:idx_change_logs_entity,priority:3" json:"entity_id"`
	Changes    datatypes.JSONSlice[FieldDiff] `gorm:"not null" json:"changes"`
	ActorID    *snowflake.ID                  `json:"actor_id,omitempty"`
	RequestID  string                         `json:"request_id,omitempty"`
	CreatedAt  time.Time                      `gorm:"not null" json:"created_at"`

	ActorFirstName string `gorm:"->;-:migration" json:"actor_first_name,omitempty"`
	ActorLastName  string `gorm:"->;-:migration" json:"actor_last_name,omitempty"`
}

func (ChangeLog) TableName() string { return "change_logs" }

// Cursor marks the last row of a page.
type Cursor = pagination.Cursor

type ListFilter struct {
	OrgID  snowflake.ID
	Ref    *EntityRef
	Cursor *Cursor
	Limit  int
}
