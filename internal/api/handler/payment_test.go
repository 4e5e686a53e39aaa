package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Naakoi/uekera_go_server/internal/api/middleware"
	"github.com/Naakoi/uekera_go_server/internal/model"
	"github.com/Naakoi/uekera_go_server/internal/model/dto"
	"github.com/Naakoi/uekera_go_server/internal/pkg/response"
	"github.com/Naakoi/uekera_go_server/internal/repository"
	"github.com/Naakoi/uekera_go_server/internal/service"
	"github.com/Naakoi/uekera_go_server/internal/testutil"
)

func setupPaymentRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()

	svc := service.NewPaymentService(
		repository.NewPurchaseRepository(db),
		repository.NewSubscriptionRepository(db),
		repository.NewDocumentRepository(db),
		repository.NewPaymentCodeRepository(db),
	)
	h := NewPaymentHandler(svc)

	router := gin.New()
	group := router.Group("")
	group.Use(middleware.Auth(testJWTSecret))
	{
		group.POST("/payment-code/redeem", h.RedeemPaymentCode)
		group.POST("/payment-codes/generate", h.GeneratePaymentCodes)
		group.GET("/payment-codes", h.ListPaymentCodes)
	}
	return router
}

func TestPaymentHandler_RedeemPaymentCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	staff := testutil.TestUser(t, db, testutil.WithRole(model.RoleStaff))
	user := testutil.TestUser(t, db)
	doc := testutil.TestDocument(t, db, testutil.WithPrice(4.5))
	code := testutil.TestPaymentCode(t, db, staff.ID)

	router := setupPaymentRouter(t, db)
	w := performRequest(router, "POST", "/payment-code/redeem", dto.RedeemPaymentCodeRequest{
		Code:       code.Code,
		DocumentID: doc.ID,
	}, authHeader(t, user.ID))

	resp := parseResponse(t, w)
	assert.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, response.CodeSuccess, resp.Code)

	var purchase model.Purchase
	require.NoError(t, db.Where("user_id = ? AND document_id = ?", user.ID, doc.ID).First(&purchase).Error)
	assert.Equal(t, "code", purchase.PaymentMethod)
	assert.Equal(t, model.PurchaseStatusCompleted, purchase.Status)

	// 再次兑换同一张码
	w = performRequest(router, "POST", "/payment-code/redeem", dto.RedeemPaymentCodeRequest{
		Code:       code.Code,
		DocumentID: doc.ID,
	}, authHeader(t, user.ID))
	resp = parseResponse(t, w)
	assert.Equal(t, response.CodeCodeInvalid, resp.Code)
}

func TestPaymentHandler_RedeemPaymentCodeScope(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	staff := testutil.TestUser(t, db, testutil.WithRole(model.RoleStaff))
	user := testutil.TestUser(t, db)
	doc := testutil.TestDocument(t, db)
	other := testutil.TestDocument(t, db)
	code := testutil.TestPaymentCode(t, db, staff.ID, testutil.WithPaymentCodeDocument(other.ID))

	router := setupPaymentRouter(t, db)
	w := performRequest(router, "POST", "/payment-code/redeem", dto.RedeemPaymentCodeRequest{
		Code:       code.Code,
		DocumentID: doc.ID,
	}, authHeader(t, user.ID))

	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeCodeScope, resp.Code)
}

func TestPaymentHandler_GenerateAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	staff := testutil.TestUser(t, db, testutil.WithRole(model.RoleStaff))
	router := setupPaymentRouter(t, db)

	w := performRequest(router, "POST", "/payment-codes/generate", dto.GeneratePaymentCodesRequest{
		Count: 5,
	}, authHeader(t, staff.ID))
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	codes, ok := data["codes"].([]interface{})
	require.True(t, ok)
	assert.Len(t, codes, 5)

	w = performRequest(router, "GET", "/payment-codes", nil, authHeader(t, staff.ID))
	resp = parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	page, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(5), page["total"])
}
