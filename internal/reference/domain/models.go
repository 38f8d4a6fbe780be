package domain

import (
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Status is the lifecycle flag shared by every managed record.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

var ErrInvalidStatus = errors.New("invalid_status")

// ParseStatus accepts any casing. "All" and "" mean no filter and return "".
func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return "", nil
	case "active":
		return StatusActive, nil
	case "inactive":
		return StatusInactive, nil
	default:
		return "", ErrInvalidStatus
	}
}

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// RentType selects how a rentable unit's rate is turned into a monthly charge.
type RentType string

const (
	RentTypeDaily   RentType = "Daily"
	RentTypeMonthly RentType = "Monthly"
)

var ErrInvalidRentType = errors.New("invalid_rent_type")

func ParseRentType(raw string) (RentType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "daily":
		return RentTypeDaily, nil
	case "monthly":
		return RentTypeMonthly, nil
	default:
		return "", ErrInvalidRentType
	}
}

// Option is a dropdown entry.
type Option struct {
	ID    snowflake.ID `json:"id"`
	Label string       `json:"label"`
}

type StatusOption struct {
	Value Status `json:"value"`
	Label string `json:"label"`
}

func StatusOptions() []StatusOption {
	return []StatusOption{
		{Value: "", Label: "All"},
		{Value: StatusActive, Label: "Active"},
		{Value: StatusInactive, Label: "Inactive"},
	}
}

func RentTypes() []RentType {
	return []RentType{RentTypeDaily, RentTypeMonthly}
}
