package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/shoyaib4265a/st-shop-poss/internal/apierror"
	"github.com/shoyaib4265a/st-shop-poss/internal/dto"
	"github.com/shoyaib4265a/st-shop-poss/internal/store"
	"github.com/shoyaib4265a/st-shop-poss/internal/trust"
)

// SyncTrigger is the slice of the coordinator the auth flow needs: after a
// pending approval is created the document must reach the remote soon, or
// the code never shows up on the admin's replica.
type SyncTrigger interface {
	Sync(ctx context.Context) error
}

type AuthHandler struct {
	svc   trust.Manager
	store store.Store
	sync  SyncTrigger // nil in tests that don't care
}

func NewAuthHandler(svc trust.Manager, st store.Store, sync SyncTrigger) *AuthHandler {
	return &AuthHandler{svc: svc, store: st, sync: sync}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Phone, req.PIN)
	if err != nil {
		if errors.Is(err, trust.ErrInvalidCredential) {
			c.JSON(http.StatusUnauthorized, apierror.New("invalid phone or pin"))
			return
		}
		c.Error(err) //nolint:errcheck
		return
	}

	if res.Pending {
		// Push the new pending out-of-band so the admin's replica can see
		// the code before this device is trusted.
		h.syncSoon()
		c.JSON(http.StatusAccepted, dto.LoginResponse{Pending: true, PendingCode: res.Code})
		return
	}
	c.JSON(http.StatusOK, dto.LoginResponse{OK: true, Role: res.Role})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context()); err != nil {
		c.Error(err) //nolint:errcheck
		return
	}
	c.Status(http.StatusNoContent)
}

// CurrentSession lets UI glue resume a session at boot.
func (h *AuthHandler) CurrentSession(c *gin.Context) {
	sess, err := h.store.Session(c.Request.Context())
	if err != nil {
		c.Error(err) //nolint:errcheck
		return
	}
	if sess == nil {
		c.JSON(http.StatusNotFound, apierror.New("no active session"))
		return
	}
	c.JSON(http.StatusOK, dto.SessionResponse{Phone: sess.Phone, Role: sess.Role, Approved: sess.Approved})
}

func (h *AuthHandler) Approve(c *gin.Context) {
	var req dto.ApproveRequest
	if !bindAndValidate(c, &req) {
		return
	}
	err := h.svc.Approve(c.Request.Context(), req.Code)
	switch {
	case errors.Is(err, trust.ErrUnknownCode):
		c.JSON(http.StatusNotFound, apierror.New("unknown approval code"))
	case errors.Is(err, trust.ErrOrphanedCredential):
		c.JSON(http.StatusConflict, apierror.New("credential for this approval no longer exists"))
	case err != nil:
		c.Error(err) //nolint:errcheck
	default:
		h.syncSoon()
		c.Status(http.StatusNoContent)
	}
}

func (h *AuthHandler) Revoke(c *gin.Context) {
	var req dto.RevokeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Revoke(c.Request.Context(), req.Phone, req.Device); err != nil {
		c.Error(err) //nolint:errcheck
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) SaveCredential(c *gin.Context) {
	var req dto.SaveCredentialRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.SaveCredential(c.Request.Context(), req.Phone, req.PIN, req.Role); err != nil {
		c.Error(err) //nolint:errcheck
		return
	}
	c.Status(http.StatusNoContent)
}

// syncSoon kicks a background cycle without holding up the response. Errors
// only get logged — the UI path already succeeded locally.
func (h *AuthHandler) syncSoon() {
	if h.sync == nil {
		return
	}
	go func() {
		if err := h.sync.Sync(context.Background()); err != nil {
			log.Warn().Err(err).Msg("handler: background sync failed")
		}
	}()
}
