package handlers

import (
	"github.com/shardchat/shardchat/internal/config"
	"github.com/shardchat/shardchat/internal/room"
)

type Handler struct {
	Cfg      config.Config
	Svc      *room.Service
	Resolver room.Resolver
}

func NewHandler(cfg config.Config, svc *room.Service, resolver room.Resolver) *Handler {
	return &Handler{Cfg: cfg, Svc: svc, Resolver: resolver}
}
