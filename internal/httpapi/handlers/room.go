package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shardchat/shardchat/internal/common"
	"github.com/shardchat/shardchat/internal/room"
)

type sendReq struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

func (h *Handler) Send(c *gin.Context) {
	var req sendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid json")
		return
	}

	res, err := h.Svc.Send(c.Request.Context(), c.Param("room"), req.Username, req.Message)
	if err != nil {
		if errors.Is(err, room.ErrValidation) {
			common.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		common.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *Handler) Messages(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			common.Error(c, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	var before time.Time
	if v := c.Query("before"); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			common.Error(c, http.StatusBadRequest, "before must be an RFC3339 timestamp")
			return
		}
		before = t
	}

	msgs, err := h.Svc.Messages(c.Request.Context(), c.Param("room"), limit, before)
	if err != nil {
		if errors.Is(err, room.ErrValidation) {
			common.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		common.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	if msgs == nil {
		msgs = []room.Message{}
	}

	c.JSON(http.StatusOK, msgs)
}

type activeUser struct {
	Username string    `json:"username"`
	LastSeen time.Time `json:"last_seen"`
}

func (h *Handler) Users(c *gin.Context) {
	rows, err := h.Svc.ActiveUsers(c.Request.Context(), c.Param("room"))
	if err != nil {
		if errors.Is(err, room.ErrValidation) {
			common.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		common.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]activeUser, 0, len(rows))
	for _, r := range rows {
		out = append(out, activeUser{Username: r.Username, LastSeen: r.LastSeen})
	}

	c.JSON(http.StatusOK, out)
}
