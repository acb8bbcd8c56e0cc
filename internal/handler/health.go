package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/shoyaib4265a/st-shop-poss/internal/store"
	"github.com/shoyaib4265a/st-shop-poss/internal/syncer"
)

type HealthHandler struct {
	store store.Store
	coord *syncer.Coordinator // nil when sync is disabled
	rdb   *redis.Client       // nil when the HTTP backend is configured
}

func NewHealthHandler(st store.Store, coord *syncer.Coordinator, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{store: st, coord: coord, rdb: rdb}
}

// Check reports local-store health plus the state of the sync machinery.
// The local store is the only hard dependency: a dead remote or a down
// queue degrades sync, not the POS itself.
func (h *HealthHandler) Check(c *gin.Context) {
	resp := gin.H{"status": "ok"}

	version, err := h.store.Version(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "store": err.Error()})
		return
	}
	resp["version"] = version

	if h.rdb != nil {
		if err := h.rdb.Ping(c.Request.Context()).Err(); err != nil {
			resp["queue"] = "down"
		} else {
			resp["queue"] = "ok"
		}
	}

	if h.coord != nil {
		resp["sync"] = gin.H{
			"phase":   h.coord.Phase().String(),
			"breaker": h.coord.BreakerState().String(),
		}
	}

	c.JSON(http.StatusOK, resp)
}
