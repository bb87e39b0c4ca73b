package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shardchat/shardchat/internal/common"
	"github.com/shardchat/shardchat/internal/room"
)

// adminTables are the only names the count endpoint will touch.
var adminTables = map[string]bool{
	"rooms":    true,
	"messages": true,
	"users":    true,
}

// AdminDB serves the db admin surface for one room's unit. Routing happens
// off the wildcard segment so the whole subtree stays behind one gate:
//
//	GET tables              -> table names in the unit
//	GET tables/:name/count  -> row count
func (h *Handler) AdminDB(c *gin.Context) {
	stores, err := h.Resolver.Resolve(c.Param("room"))
	if err != nil {
		if errors.Is(err, room.ErrValidation) {
			common.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		common.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	db := stores.Primary

	sub := strings.Trim(c.Param("path"), "/")
	parts := strings.Split(sub, "/")

	switch {
	case c.Request.Method == http.MethodGet && sub == "tables":
		tables, err := db.Migrator().GetTables()
		if err != nil {
			common.Error(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"tables": tables})

	case c.Request.Method == http.MethodGet && len(parts) == 3 && parts[0] == "tables" && parts[2] == "count":
		name := parts[1]
		if !adminTables[name] {
			common.Error(c, http.StatusNotFound, "unknown table")
			return
		}
		var count int64
		if err := db.WithContext(c.Request.Context()).Table(name).Count(&count).Error; err != nil {
			common.Error(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"table": name, "count": count})

	default:
		common.Error(c, http.StatusNotFound, "unknown admin endpoint")
	}
}
