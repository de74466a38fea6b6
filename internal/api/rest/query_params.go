package rest

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-webhook-dispatcher/internal/api/shared/constants"
)

// ListLogsQueryParams holds query parameters for GET /subscriptions/:id/logs
type ListLogsQueryParams struct {
	Limit int `form:"limit,default=0"`
}

// ParseListLogsQuery parses query parameters for GET /subscriptions/:id/logs
func ParseListLogsQuery(c *gin.Context) (*ListLogsQueryParams, error) {
	var params ListLogsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	if params.Limit < 0 {
		return nil, fmt.Errorf("limit must not be negative")
	}

	// Cap limit
	if params.Limit > constants.MAX_LOGS_LIMIT {
		params.Limit = constants.MAX_LOGS_LIMIT
	}

	return &params, nil
}

// parseIDParam parses a numeric path parameter
func parseIDParam(c *gin.Context, name string) (uint64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}
