package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shoyaib4265a/st-shop-poss/internal/apierror"
	"github.com/shoyaib4265a/st-shop-poss/internal/dto"
	"github.com/shoyaib4265a/st-shop-poss/internal/service"
)

// AdminHandler serves the read-only views an admin replica uses to run the
// approval flow: outstanding pendings and the device log.
type AdminHandler struct{ svc service.POSService }

func NewAdminHandler(svc service.POSService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func (h *AdminHandler) ListPending(c *gin.Context) {
	pendings, err := h.svc.ListPending(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list pending approvals"))
		return
	}
	resp := make([]dto.PendingResponse, len(pendings))
	for i, p := range pendings {
		resp[i] = dto.PendingResponse{Phone: p.Phone, Device: p.Device, Code: p.Code}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) ListDeviceLogs(c *gin.Context) {
	logs, err := h.svc.ListDeviceLogs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list device logs"))
		return
	}
	resp := make([]dto.DeviceLogResponse, len(logs))
	for i, l := range logs {
		resp[i] = dto.DeviceLogResponse{Phone: l.Phone, Device: l.Device, At: l.At}
	}
	c.JSON(http.StatusOK, resp)
}
