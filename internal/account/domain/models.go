package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"github.com/smallbiznis/collections/pkg/db/pagination"
)

type Account struct {
	ID         snowflake.ID           `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID           `gorm:"not null;uniqueIndex:idx_accounts_org_email,priority:1" json:"organization_id"`
	FirstName  string                 `gorm:"not null" json:"firstname"`
	MiddleName string                 `json:"middlename,omitempty"`
	LastName   string                 `gorm:"not null" json:"lastname"`
	Email      string                 `gorm:"not null;uniqueIndex:idx_accounts_org_email,priority:2" json:"email"`
	Status     referencedomain.Status `gorm:"type:varchar(16);not null;default:'Active'" json:"status"`
	CreatedBy  *snowflake.ID          `json:"created_by,omitempty"`
	CreatedAt  time.Time              `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time              `gorm:"not null" json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

func (a Account) FullName() string {
	parts := []string{a.FirstName, a.MiddleName, a.LastName}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// SystemAccess grants an account entry to one system, identified by its tag.
type SystemAccess struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID  `gorm:"not null;uniqueIndex:idx_system_access_account,priority:1" json:"organization_id"`
	AccountID snowflake.ID  `gorm:"not null;uniqueIndex:idx_system_access_account,priority:2" json:"account_id"`
	Type      string        `gorm:"type:varchar(64);not null;uniqueIndex:idx_system_access_account,priority:3" json:"type"`
	CreatedBy *snowflake.ID `json:"created_by,omitempty"`
	CreatedAt time.Time     `gorm:"not null" json:"created_at"`
}

func (SystemAccess) TableName() string { return "system_access" }

type AccountRow struct {
	Account
	HasAccess bool `json:"has_access"`
}

type ListFilter struct {
	OrgID         snowflake.ID
	ID            *snowflake.ID
	Keyword       string
	Status        referencedomain.Status
	ExcludeEmails []string
	Range         pagination.Range
}
