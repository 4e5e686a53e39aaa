package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naakoi/uekera_go_server/internal/model"
	"github.com/Naakoi/uekera_go_server/internal/model/dto"
	"github.com/Naakoi/uekera_go_server/internal/repository"
	"github.com/Naakoi/uekera_go_server/internal/testutil"
)

func TestUserService_GetAndUpdateProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := NewUserService(repository.NewUserRepository(db))
	user := testutil.TestUser(t, db, func(u *model.User) { u.Name = "Old Name" })

	info, err := svc.GetProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Old Name", info.Name)

	newName := "New Name"
	info, err = svc.UpdateProfile(user.ID, &dto.UpdateProfileRequest{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "New Name", info.Name)

	_, err = svc.GetProfile(424242)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_SetRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	userRepo := repository.NewUserRepository(db)
	svc := NewUserService(userRepo)
	user := testutil.TestUser(t, db)

	require.NoError(t, svc.SetRole(user.ID, model.RoleStaff, true, true, false))

	got, err := userRepo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleStaff, got.Role)
	assert.True(t, got.CanUploadDocuments)
	assert.True(t, got.CanCreateVouchers)

	// 降回普通用户时能力位一并清空
	require.NoError(t, svc.SetRole(user.ID, model.RoleClient, true, true, true))
	got, err = userRepo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleClient, got.Role)
	assert.False(t, got.CanUploadDocuments)
	assert.False(t, got.CanCreateVouchers)
	assert.False(t, got.CanManageUsers)

	assert.ErrorIs(t, svc.SetRole(user.ID, "superuser", false, false, false), ErrInvalidRole)
}
