package service

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Naakoi/uekera_go_server/internal/model"
	"github.com/Naakoi/uekera_go_server/internal/model/dto"
	"github.com/Naakoi/uekera_go_server/internal/repository"
	"github.com/Naakoi/uekera_go_server/internal/testutil"
)

func newRedeemService(db *gorm.DB) *RedeemService {
	return NewRedeemService(
		repository.NewRedeemCodeRepository(db),
		repository.NewDocumentRepository(db),
	)
}

func TestRedeemService_Generate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newRedeemService(db)
	admin := testutil.TestUser(t, db, testutil.WithRole(model.RoleAdmin))

	codes, err := svc.Generate(admin.ID, &dto.GenerateCodesRequest{
		Count:        20,
		DurationType: model.DurationWeekly,
	})
	require.NoError(t, err)
	require.Len(t, codes, 20)

	format := regexp.MustCompile(`^[A-Z0-9]{10}$`)
	seen := make(map[string]struct{})
	for _, c := range codes {
		assert.Regexp(t, format, c)
		_, dup := seen[c]
		assert.False(t, dup, "批内兑换码不能重复")
		seen[c] = struct{}{}
	}
}

func TestRedeemService_GenerateForMissingDocument(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newRedeemService(db)
	admin := testutil.TestUser(t, db, testutil.WithRole(model.RoleAdmin))

	missing := int64(424242)
	_, err := svc.Generate(admin.ID, &dto.GenerateCodesRequest{
		Count:        1,
		DocumentID:   &missing,
		DurationType: model.DurationPermanent,
	})
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestRedeemService_RedeemGuest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newRedeemService(db)
	admin := testutil.TestUser(t, db, testutil.WithRole(model.RoleAdmin))
	code := testutil.TestRedeemCode(t, db, admin.ID)

	resp, err := svc.Redeem(model.GuestIdentity("device-1"), &dto.RedeemRequest{
		Code:     code.Code,
		DeviceID: "device-1",
	})
	require.NoError(t, err)
	assert.True(t, resp.Activated)
	assert.Equal(t, "device", resp.Target)
	assert.Empty(t, resp.ExpiresAt, "永久码没有过期时间")
}

func TestRedeemService_RedeemExpiryComputation(t *testing.T) {
	tests := []struct {
		name         string
		durationType string
		wantDays     int
		permanent    bool
	}{
		{"永久码", model.DurationPermanent, 0, true},
		{"周卡", model.DurationWeekly, 7, false},
		{"月卡", model.DurationMonthly, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			defer testutil.CleanupTestDB(t, db)

			svc := newRedeemService(db)
			admin := testutil.TestUser(t, db, testutil.WithRole(model.RoleAdmin))
			code := testutil.TestRedeemCode(t, db, admin.ID, testutil.WithDuration(tt.durationType))

			before := time.Now()
			resp, err := svc.Redeem(model.GuestIdentity("device-1"), &dto.RedeemRequest{
				Code:     code.Code,
				DeviceID: "device-1",
			})
			require.NoError(t, err)

			if tt.permanent {
				assert.Empty(t, resp.ExpiresAt)
				return
			}

			expires, err := time.Parse(time.RFC3339, resp.ExpiresAt)
			require.NoError(t, err)

			var want time.Time
			if tt.durationType == model.DurationWeekly {
				want = before.AddDate(0, 0, tt.wantDays)
			} else {
				want = before.AddDate(0, 1, 0)
			}
			assert.WithinDuration(t, want, expires, 5*time.Second)
		})
	}
}

func TestRedeemService_RedeemErrors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newRedeemService(db)
	admin := testutil.TestUser(t, db, testutil.WithRole(model.RoleAdmin))
	doc := testutil.TestDocument(t, db)
	other := testutil.TestDocument(t, db)
	identity := model.GuestIdentity("device-1")

	// 码不存在
	_, err := svc.Redeem(identity, &dto.RedeemRequest{Code: "NOSUCHCODE", DeviceID: "device-1"})
	assert.ErrorIs(t, err, ErrCodeNotFound)

	// 单期码用在别的刊物上
	docCode := testutil.TestRedeemCode(t, db, admin.ID, testutil.WithCodeDocument(doc.ID))
	_, err = svc.Redeem(identity, &dto.RedeemRequest{
		Code:       docCode.Code,
		DeviceID:   "device-1",
		DocumentID: &other.ID,
	})
	assert.ErrorIs(t, err, ErrCodeScope)

	// 已使用的码
	used := testutil.TestRedeemCode(t, db, admin.ID)
	otherDevice := "device-2"
	_, err = svc.Redeem(model.GuestIdentity(otherDevice), &dto.RedeemRequest{Code: used.Code, DeviceID: otherDevice})
	require.NoError(t, err)
	_, err = svc.Redeem(identity, &dto.RedeemRequest{Code: used.Code, DeviceID: "device-1"})
	assert.ErrorIs(t, err, ErrCodeUsed)
}

func TestRedeemService_AlreadyActivatedSameScope(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newRedeemService(db)
	admin := testutil.TestUser(t, db, testutil.WithRole(model.RoleAdmin))
	identity := model.GuestIdentity("device-1")

	first := testutil.TestRedeemCode(t, db, admin.ID)
	second := testutil.TestRedeemCode(t, db, admin.ID)

	_, err := svc.Redeem(identity, &dto.RedeemRequest{Code: first.Code, DeviceID: "device-1"})
	require.NoError(t, err)

	// 同范围已有生效激活，不再消耗新码
	_, err = svc.Redeem(identity, &dto.RedeemRequest{Code: second.Code, DeviceID: "device-1"})
	assert.ErrorIs(t, err, ErrAlreadyActivated)

	// 新码保持未使用
	got, gerr := repository.NewRedeemCodeRepository(db).GetByID(second.ID)
	require.NoError(t, gerr)
	assert.False(t, got.IsUsed)
}

func TestRedeemService_ExpiredActivationDoesNotBlock(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newRedeemService(db)
	admin := testutil.TestUser(t, db, testutil.WithRole(model.RoleAdmin))

	deviceID := "device-1"
	past := time.Now().Add(-time.Hour)
	testutil.TestRedeemCode(t, db, admin.ID, testutil.WithActivation(nil, &deviceID, &past))

	fresh := testutil.TestRedeemCode(t, db, admin.ID)
	resp, err := svc.Redeem(model.GuestIdentity(deviceID), &dto.RedeemRequest{Code: fresh.Code, DeviceID: deviceID})
	require.NoError(t, err)
	assert.True(t, resp.Activated)
}

func TestRedeemService_CheckStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newRedeemService(db)
	admin := testutil.TestUser(t, db, testutil.WithRole(model.RoleAdmin))
	doc := testutil.TestDocument(t, db)
	other := testutil.TestDocument(t, db)

	deviceID := "device-1"
	testutil.TestRedeemCode(t, db, admin.ID,
		testutil.WithCodeDocument(doc.ID),
		testutil.WithActivation(nil, &deviceID, nil))

	identity := model.GuestIdentity(deviceID)

	resp, err := svc.CheckStatus(identity, &doc.ID)
	require.NoError(t, err)
	assert.True(t, resp.Activated)
	assert.False(t, resp.FullAccess)
	assert.True(t, resp.DocumentAccess)

	resp, err = svc.CheckStatus(identity, &other.ID)
	require.NoError(t, err)
	assert.True(t, resp.Activated)
	assert.False(t, resp.DocumentAccess)

	resp, err = svc.CheckStatus(model.GuestIdentity("unknown-device"), nil)
	require.NoError(t, err)
	assert.False(t, resp.Activated)
}

func TestRedeemService_DeleteRevokesActivation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newRedeemService(db)
	admin := testutil.TestUser(t, db, testutil.WithRole(model.RoleAdmin))

	deviceID := "device-1"
	used := testutil.TestRedeemCode(t, db, admin.ID, testutil.WithActivation(nil, &deviceID, nil))
	fresh := testutil.TestRedeemCode(t, db, admin.ID)

	// 删除已使用的码即撤销激活，设备失去访问权
	require.NoError(t, svc.Delete(used.ID))
	resp, err := svc.CheckStatus(model.GuestIdentity(deviceID), nil)
	require.NoError(t, err)
	assert.False(t, resp.Activated)

	assert.NoError(t, svc.Delete(fresh.ID))
	assert.ErrorIs(t, svc.Delete(fresh.ID), ErrCodeNotFound)
}
