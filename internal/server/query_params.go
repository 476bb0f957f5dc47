package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/internlink/pkg/db/pagination"
)

func parsePathID(c *gin.Context, name string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param(name)))
	if err != nil || id == 0 {
		return 0, invalidRequestError("invalid " + name)
	}
	return id, nil
}

func bindPage(c *gin.Context) (pagination.Request, error) {
	var req pagination.Request
	if err := c.ShouldBindQuery(&req); err != nil {
		return pagination.Request{}, invalidRequestError("page and page_size must be integers")
	}
	return req.Normalize(), nil
}
