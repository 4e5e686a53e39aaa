package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Naakoi/uekera_go_server/internal/model"
	"github.com/Naakoi/uekera_go_server/internal/testutil"
)

func TestUserRepository_GetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)
	user := testutil.TestUser(t, db, testutil.WithEmail("reader@example.com"))

	got, err := repo.GetByEmail("reader@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = repo.GetByEmail("missing@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_EmailExists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)
	testutil.TestUser(t, db, testutil.WithEmail("taken@example.com"))

	exists, err := repo.EmailExists("taken@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.EmailExists("free@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserRepository_GetByGoogleID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)
	googleID := "google-sub-123"
	user := testutil.TestUser(t, db, func(u *model.User) { u.GoogleID = &googleID })

	got, err := repo.GetByGoogleID(googleID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestUserRepository_ListWithSearch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)
	testutil.TestUser(t, db, func(u *model.User) { u.Name = "Teretia" })
	testutil.TestUser(t, db, func(u *model.User) { u.Name = "Ioane" })

	users, total, err := repo.List(1, 10, "Tere")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, "Teretia", users[0].Name)
}

func TestUserRepository_UpdateFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)
	user := testutil.TestUser(t, db)

	err := repo.UpdateFields(user.ID, map[string]interface{}{
		"role":                 model.RoleStaff,
		"can_upload_documents": true,
	})
	require.NoError(t, err)

	got, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleStaff, got.Role)
	assert.True(t, got.CanUploadDocuments)
}
