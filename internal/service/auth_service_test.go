package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Naakoi/uekera_go_server/config"
	"github.com/Naakoi/uekera_go_server/internal/model/dto"
	"github.com/Naakoi/uekera_go_server/internal/pkg/jwt"
	"github.com/Naakoi/uekera_go_server/internal/repository"
	"github.com/Naakoi/uekera_go_server/internal/testutil"
)

func testConfig(mode string) *config.Config {
	cfg := &config.Config{}
	cfg.Server.Mode = mode
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireHours = 24
	return cfg
}

func newAuthService(db *gorm.DB, mode string) *AuthService {
	return NewAuthService(repository.NewUserRepository(db), nil, testConfig(mode))
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newAuthService(db, "debug")

	resp, err := svc.Register(&dto.RegisterRequest{
		Name:     "Teretia",
		Email:    "teretia@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotZero(t, resp.UserID)

	login, err := svc.Login(&dto.LoginRequest{
		Email:    "teretia@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "Teretia", login.User.Name)

	claims, err := jwt.ParseToken(login.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, claims.UserID)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newAuthService(db, "debug")

	req := &dto.RegisterRequest{Name: "Ioane", Email: "ioane@example.com", Password: "password123"}
	_, err := svc.Register(req)
	require.NoError(t, err)

	_, err = svc.Register(req)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newAuthService(db, "debug")

	_, err := svc.Register(&dto.RegisterRequest{Name: "Ioane", Email: "ioane@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Login(&dto.LoginRequest{Email: "ioane@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(&dto.LoginRequest{Email: "ghost@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_EmailVerificationFlow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	// release 模式要求验证邮箱后才能登录
	svc := newAuthService(db, "release")
	userRepo := repository.NewUserRepository(db)

	resp, err := svc.Register(&dto.RegisterRequest{
		Name:     "Teretia",
		Email:    "teretia@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = svc.Login(&dto.LoginRequest{Email: "teretia@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	user, err := userRepo.GetByID(resp.UserID)
	require.NoError(t, err)
	require.NotNil(t, user.VerificationCode)

	require.NoError(t, svc.VerifyEmail(&dto.VerifyEmailRequest{Code: *user.VerificationCode}))

	// 验证码一次性有效
	err = svc.VerifyEmail(&dto.VerifyEmailRequest{Code: *user.VerificationCode})
	assert.ErrorIs(t, err, ErrInvalidVerifyCode)

	login, err := svc.Login(&dto.LoginRequest{Email: "teretia@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.True(t, login.User.EmailVerified)
}

func TestAuthService_VerifyEmailBadCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newAuthService(db, "release")

	err := svc.VerifyEmail(&dto.VerifyEmailRequest{Code: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidVerifyCode)
}
