package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Naakoi/uekera_go_server/internal/api/middleware"
	"github.com/Naakoi/uekera_go_server/internal/model"
	"github.com/Naakoi/uekera_go_server/internal/model/dto"
	"github.com/Naakoi/uekera_go_server/internal/pkg/response"
	"github.com/Naakoi/uekera_go_server/internal/service"
)

type RedeemHandler struct {
	redeemService *service.RedeemService
}

func NewRedeemHandler(redeemService *service.RedeemService) *RedeemHandler {
	return &RedeemHandler{redeemService: redeemService}
}

// Redeem 兑换激活码。登录用户激活落在账号上，
// 游客落在请求里携带的设备 ID 上。
// POST /api/v1/redeem-code
func (h *RedeemHandler) Redeem(c *gin.Context) {
	var req dto.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	identity := middleware.GetIdentity(c)
	if identity.DeviceID == "" {
		identity.DeviceID = req.DeviceID
	}

	resp, err := h.redeemService.Redeem(identity, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCodeNotFound):
			response.Error(c, response.CodeCodeInvalid, err.Error())
		case errors.Is(err, service.ErrCodeUsed):
			response.Error(c, response.CodeCodeUsed, err.Error())
		case errors.Is(err, service.ErrCodeScope):
			response.Error(c, response.CodeCodeScope, err.Error())
		case errors.Is(err, service.ErrAlreadyActivated):
			response.Error(c, response.CodeCodeDuplicate, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "兑换成功", resp)
}

// CheckStatus 查询激活状态，无需登录
// POST /api/v1/redeem-code/status
func (h *RedeemHandler) CheckStatus(c *gin.Context) {
	var req dto.CheckStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	identity := middleware.GetIdentity(c)
	if identity.DeviceID == "" {
		identity.DeviceID = req.DeviceID
	}
	if !identity.Authenticated() {
		identity = model.GuestIdentity(req.DeviceID)
	}

	resp, err := h.redeemService.CheckStatus(identity, req.DocumentID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, resp)
}

// Generate 批量生成兑换码
// POST /api/v1/redeem-codes/generate
func (h *RedeemHandler) Generate(c *gin.Context) {
	var req dto.GenerateCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	creatorID, _ := middleware.GetUserID(c)
	codes, err := h.redeemService.Generate(creatorID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDocumentNotFound):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrCodeGeneration):
			response.ServerError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, &dto.GenerateCodesResponse{Codes: codes})
}

// List 兑换码列表
// GET /api/v1/redeem-codes
func (h *RedeemHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)
	onlyUnused := c.Query("only_unused") == "true"

	items, total, err := h.redeemService.List(page, pageSize, onlyUnused)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Delete 删除未使用的兑换码
// DELETE /api/v1/redeem-codes/:id
func (h *RedeemHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的兑换码 ID")
		return
	}

	if err := h.redeemService.Delete(id); err != nil {
		if errors.Is(err, service.ErrCodeNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "已删除", nil)
}
