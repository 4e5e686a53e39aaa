package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Naakoi/uekera_go_server/internal/api/middleware"
	"github.com/Naakoi/uekera_go_server/internal/model/dto"
	"github.com/Naakoi/uekera_go_server/internal/pkg/response"
	"github.com/Naakoi/uekera_go_server/internal/service"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
}

func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Purchase 模拟购买单本刊物
// POST /api/v1/documents/:id/pay
func (h *PaymentHandler) Purchase(c *gin.Context) {
	documentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的刊物 ID")
		return
	}

	var req dto.SimulatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	userID, _ := middleware.GetUserID(c)
	resp, err := h.paymentService.SimulatePurchase(userID, documentID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDocumentNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrAlreadyPurchased):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "购买成功", resp)
}

// Subscribe 开通订阅
// POST /api/v1/subscribe
func (h *PaymentHandler) Subscribe(c *gin.Context) {
	var req dto.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	userID, _ := middleware.GetUserID(c)
	resp, err := h.paymentService.Subscribe(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrPlanInactive):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "订阅成功", resp)
}

// RedeemPaymentCode 抵扣码兑换单期刊物
// POST /api/v1/payment-code/redeem
func (h *PaymentHandler) RedeemPaymentCode(c *gin.Context) {
	var req dto.RedeemPaymentCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	userID, _ := middleware.GetUserID(c)
	resp, err := h.paymentService.RedeemPaymentCode(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentCodeInvalid):
			response.Error(c, response.CodeCodeInvalid, err.Error())
		case errors.Is(err, service.ErrPaymentCodeScope):
			response.Error(c, response.CodeCodeScope, err.Error())
		case errors.Is(err, service.ErrDocumentNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrAlreadyPurchased):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "兑换成功", resp)
}

// GeneratePaymentCodes 批量生成抵扣码
// POST /api/v1/payment-codes/generate
func (h *PaymentHandler) GeneratePaymentCodes(c *gin.Context) {
	var req dto.GeneratePaymentCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	userID, _ := middleware.GetUserID(c)
	codes, err := h.paymentService.GeneratePaymentCodes(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDocumentNotFound):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrPaymentCodeGenerate):
			response.ServerError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, &dto.GeneratePaymentCodesResponse{Codes: codes})
}

// ListPaymentCodes 抵扣码列表
// GET /api/v1/payment-codes
func (h *PaymentHandler) ListPaymentCodes(c *gin.Context) {
	page, pageSize := pagination(c)

	items, total, err := h.paymentService.ListPaymentCodes(page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Plans 可用订阅套餐
// GET /api/v1/plans
func (h *PaymentHandler) Plans(c *gin.Context) {
	plans, err := h.paymentService.ListPlans()
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, plans)
}
