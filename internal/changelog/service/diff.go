package service

import (
	"fmt"
	"reflect"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/collections/internal/changelog/domain"
)

// Diff compares every field of newValues that also exists in original and
// returns the differing ones in newValues order. Fields missing from
// original are ignored.
func Diff(newValues, original domain.Values) []domain.FieldDiff {
	var diffs []domain.FieldDiff
	for _, field := range newValues {
		oldRaw, ok := original.Lookup(field.Name)
		if !ok {
			continue
		}
		oldValue := normalize(oldRaw)
		newValue := normalize(field.Value)
		if oldValue != newValue {
			diffs = append(diffs, domain.FieldDiff{
				Field:    field.Name,
				OldValue: oldValue,
				NewValue: newValue,
			})
		}
	}
	return diffs
}

// normalize reduces a value to a comparable scalar: nil, string, bool,
// int64, uint64 or float64.
func normalize(value any) any {
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	}

	switch v := value.(type) {
	case nil:
		return nil
	case string, bool, int64, uint64, float64:
		return v
	case decimal.Decimal:
		return v.String()
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case snowflake.ID:
		return v.String()
	case fmt.Stringer:
		return v.String()
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	default:
		return fmt.Sprint(value)
	}
}
