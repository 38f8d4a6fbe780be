package server

import (
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/collections/pkg/db/pagination"
)

// rangeQuery is the offset/limit pair shared by every counted listing.
type rangeQuery struct {
	Offset int `form:"offset"`
	Limit  int `form:"limit"`
}

func (q rangeQuery) toRange() pagination.Range {
	return pagination.Range{Offset: q.Offset, Limit: q.Limit}
}

func parseOptionalSnowflakeID(value string) (*snowflake.ID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := snowflake.ParseString(trimmed)
	if err != nil || parsed == 0 {
		return nil, errors.New("invalid_snowflake_id")
	}
	return &parsed, nil
}

// pathID returns the :id path parameter, rejecting anything that is not a
// snowflake id.
func pathID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := snowflake.ParseString(id); err != nil || id == "0" {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return "", false
	}
	return id, true
}
