// Package handlers exposes the garden services over HTTP/JSON.
package handlers

import (
	"go.uber.org/zap"

	"mallkisapan.io/garden/pkg/garden"
	"mallkisapan.io/garden/pkg/storage"
)

// maxUploadSize bounds multipart photo uploads.
const maxUploadSize = 50 << 20

// Handler serves every /api endpoint.
type Handler struct {
	svc   *garden.Services
	store storage.Store
	log   *zap.Logger
}

// New builds a Handler. A nil logger is replaced by a no-op logger.
func New(svc *garden.Services, store storage.Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, store: store, log: log}
}
