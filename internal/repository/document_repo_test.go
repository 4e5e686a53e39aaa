package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naakoi/uekera_go_server/internal/model"
	"github.com/Naakoi/uekera_go_server/internal/testutil"
)

func TestDocumentRepository_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewDocumentRepository(db)

	doc := &model.Document{
		Title:    "Te Uekera 第 1024 期",
		FilePath: "/data/documents/1024.pdf",
		Price:    2.0,
	}
	require.NoError(t, repo.Create(doc))
	assert.NotZero(t, doc.ID)

	got, err := repo.GetByID(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Title, got.Title)
	assert.Nil(t, got.PageCount)
}

func TestDocumentRepository_SavePageCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewDocumentRepository(db)
	doc := testutil.TestDocument(t, db)

	require.NoError(t, repo.SavePageCount(doc.ID, 16))

	got, err := repo.GetByID(doc.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PageCount)
	assert.Equal(t, 16, *got.PageCount)
}

func TestDocumentRepository_ListPublishedOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewDocumentRepository(db)
	testutil.TestDocument(t, db)
	testutil.TestDocument(t, db, func(d *model.Document) { d.PublishedAt = nil })

	docs, total, err := repo.List(1, 10, "", true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, docs, 1)

	docs, total, err = repo.List(1, 10, "", false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, docs, 2)
}

func TestDocumentRepository_ListByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewDocumentRepository(db)
	doc1 := testutil.TestDocument(t, db)
	testutil.TestDocument(t, db)

	docs, err := repo.ListByIDs([]int64{doc1.ID})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, doc1.ID, docs[0].ID)

	docs, err = repo.ListByIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
}
