package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naakoi/uekera_go_server/internal/model"
	"github.com/Naakoi/uekera_go_server/internal/testutil"
)

func TestPurchaseRepository_HasCompleted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewPurchaseRepository(db)
	user := testutil.TestUser(t, db)
	doc := testutil.TestDocument(t, db)

	ok, err := repo.HasCompleted(user.ID, doc.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	testutil.TestPurchase(t, db, user.ID, doc.ID)

	ok, err = repo.HasCompleted(user.ID, doc.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPurchaseRepository_PendingDoesNotCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewPurchaseRepository(db)
	user := testutil.TestUser(t, db)
	doc := testutil.TestDocument(t, db)

	testutil.TestPurchase(t, db, user.ID, doc.ID, testutil.WithPurchaseStatus(model.PurchaseStatusPending))
	testutil.TestPurchase(t, db, user.ID, doc.ID, testutil.WithPurchaseStatus(model.PurchaseStatusFailed))

	ok, err := repo.HasCompleted(user.ID, doc.ID)
	require.NoError(t, err)
	assert.False(t, ok, "pending 和 failed 购买不授予访问权")
}

func TestPurchaseRepository_CompletedDocumentIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewPurchaseRepository(db)
	user := testutil.TestUser(t, db)
	doc1 := testutil.TestDocument(t, db)
	doc2 := testutil.TestDocument(t, db)
	doc3 := testutil.TestDocument(t, db)

	testutil.TestPurchase(t, db, user.ID, doc1.ID)
	testutil.TestPurchase(t, db, user.ID, doc2.ID)
	testutil.TestPurchase(t, db, user.ID, doc3.ID, testutil.WithPurchaseStatus(model.PurchaseStatusPending))

	ids, err := repo.CompletedDocumentIDs(user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{doc1.ID, doc2.ID}, ids)
}

func TestPurchaseRepository_UpdateStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewPurchaseRepository(db)
	user := testutil.TestUser(t, db)
	doc := testutil.TestDocument(t, db)

	p := testutil.TestPurchase(t, db, user.ID, doc.ID, testutil.WithPurchaseStatus(model.PurchaseStatusPending))

	require.NoError(t, repo.UpdateStatus(p.ID, model.PurchaseStatusCompleted))

	got, err := repo.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseStatusCompleted, got.Status)
}
