package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shoyaib4265a/st-shop-poss/internal/apierror"
	"github.com/shoyaib4265a/st-shop-poss/internal/dto"
	"github.com/shoyaib4265a/st-shop-poss/internal/store"
	"github.com/shoyaib4265a/st-shop-poss/internal/syncer"
)

type SyncHandler struct {
	coord *syncer.Coordinator
	store store.Store
}

func NewSyncHandler(coord *syncer.Coordinator, st store.Store) *SyncHandler {
	return &SyncHandler{coord: coord, store: st}
}

// Trigger runs one merge cycle synchronously and reports the resulting local
// version. Remote trouble maps to 502: the problem is upstream, not here.
func (h *SyncHandler) Trigger(c *gin.Context) {
	if err := h.coord.Sync(c.Request.Context()); err != nil {
		switch {
		case errors.Is(err, syncer.ErrAuthenticationFailed):
			c.JSON(http.StatusBadGateway, apierror.New("remote authentication failed"))
		case errors.Is(err, syncer.ErrRemoteUnavailable):
			c.JSON(http.StatusBadGateway, apierror.New("remote unavailable"))
		default:
			c.Error(err) //nolint:errcheck
		}
		return
	}
	version, err := h.store.Version(c.Request.Context())
	if err != nil {
		c.Error(err) //nolint:errcheck
		return
	}
	c.JSON(http.StatusOK, dto.SyncResponse{OK: true, Version: version})
}
