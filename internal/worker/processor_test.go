package worker

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Naakoi/uekera_go_server/config"
	"github.com/Naakoi/uekera_go_server/internal/model"
	"github.com/Naakoi/uekera_go_server/internal/pkg/pdf"
	"github.com/Naakoi/uekera_go_server/internal/pkg/queue"
	"github.com/Naakoi/uekera_go_server/internal/repository"
	"github.com/Naakoi/uekera_go_server/internal/testutil"
)

// countingBackend 固定页数、记录渲染次数的测试后端
type countingBackend struct {
	pages       int
	countErr    error
	renderCalls int32
}

func (b *countingBackend) Name() string    { return "counting" }
func (b *countingBackend) Available() bool { return true }

func (b *countingBackend) CountPages(ctx context.Context, pdfPath string) (int, error) {
	if b.countErr != nil {
		return 0, b.countErr
	}
	return b.pages, nil
}

func (b *countingBackend) RenderPage(ctx context.Context, pdfPath string, page int, dpi int) ([]byte, error) {
	atomic.AddInt32(&b.renderCalls, 1)
	return []byte("page-image"), nil
}

type processorEnv struct {
	processor *Processor
	jobRepo   *repository.RenderJobRepository
	docRepo   *repository.DocumentRepository
	cache     *pdf.PageCache
	queue     *queue.Queue
	backend   *countingBackend
}

func newProcessorEnv(t *testing.T, db *gorm.DB, backend *countingBackend) *processorEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	base := t.TempDir()
	cfg := &config.Config{}
	cfg.Storage.PageCacheDir = filepath.Join(base, "cache")
	cfg.Storage.ThumbnailDir = filepath.Join(base, "thumbnails")
	cfg.Render.InteractiveDPI = 150
	cfg.Render.ArchivalDPI = 300
	cfg.Render.JobTimeoutSec = 60
	cfg.Render.JobMaxAttempts = 2

	docRepo := repository.NewDocumentRepository(db)
	jobRepo := repository.NewRenderJobRepository(db)
	cache := pdf.NewPageCache(cfg.Storage.PageCacheDir)
	renderer := pdf.NewRenderer(cache, []pdf.Backend{backend}, docRepo)
	q := queue.NewQueue(rdb, "render_jobs_test")

	return &processorEnv{
		processor: NewProcessor(jobRepo, docRepo, renderer, cache, q, nil, nil, cfg),
		jobRepo:   jobRepo,
		docRepo:   docRepo,
		cache:     cache,
		queue:     q,
		backend:   backend,
	}
}

func createJob(t *testing.T, env *processorEnv, documentID int64) *model.RenderJob {
	t.Helper()
	job := &model.RenderJob{DocumentID: documentID, Status: model.RenderJobStatusQueued}
	require.NoError(t, env.jobRepo.Create(job))
	return job
}

func TestProcessor_RendersAllPages(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	env := newProcessorEnv(t, db, &countingBackend{pages: 3})
	doc := testutil.TestDocument(t, db)
	job := createJob(t, env, doc.ID)

	err := env.processor.Process(context.Background(), &queue.RenderJobMessage{
		JobID: job.ID, DocumentID: doc.ID, Attempt: 1,
	})
	require.NoError(t, err)

	got, err := env.jobRepo.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RenderJobStatusCompleted, got.Status)
	assert.Equal(t, 3, got.PagesTotal)
	assert.Equal(t, 3, got.PagesRendered)
	assert.Equal(t, 1, got.Attempts)

	for page := 1; page <= 3; page++ {
		assert.True(t, env.cache.Has(doc.ID, page), "第 %d 页应已缓存", page)
	}

	// 页数持久化到刊物
	gotDoc, err := env.docRepo.GetByID(doc.ID)
	require.NoError(t, err)
	require.NotNil(t, gotDoc.PageCount)
	assert.Equal(t, 3, *gotDoc.PageCount)
}

func TestProcessor_SkipsCachedPages(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	env := newProcessorEnv(t, db, &countingBackend{pages: 4})
	doc := testutil.TestDocument(t, db, testutil.WithPageCount(4))
	job := createJob(t, env, doc.ID)

	// 预置两页，模拟上一次跑到一半
	require.NoError(t, env.cache.Write(doc.ID, 1, []byte("old")))
	require.NoError(t, env.cache.Write(doc.ID, 2, []byte("old")))

	err := env.processor.Process(context.Background(), &queue.RenderJobMessage{
		JobID: job.ID, DocumentID: doc.ID, Attempt: 1,
	})
	require.NoError(t, err)

	// 只渲染缺的两页（缩略图补渲染占一次首页调用）
	renderCalls := atomic.LoadInt32(&env.backend.renderCalls)
	assert.LessOrEqual(t, renderCalls, int32(3))
	assert.GreaterOrEqual(t, renderCalls, int32(2))

	got, err := env.jobRepo.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RenderJobStatusCompleted, got.Status)
	assert.Equal(t, 4, got.PagesRendered)
}

func TestProcessor_CountUnavailableCompletesEmpty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	env := newProcessorEnv(t, db, &countingBackend{countErr: errors.New("broken pdf")})
	doc := testutil.TestDocument(t, db)
	job := createJob(t, env, doc.ID)

	err := env.processor.Process(context.Background(), &queue.RenderJobMessage{
		JobID: job.ID, DocumentID: doc.ID, Attempt: 1,
	})
	require.NoError(t, err)

	got, err := env.jobRepo.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RenderJobStatusCompleted, got.Status)
	assert.Equal(t, 0, got.PagesTotal)
}

func TestProcessor_MissingDocumentFailsJob(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	env := newProcessorEnv(t, db, &countingBackend{pages: 1})
	job := createJob(t, env, 424242)

	err := env.processor.Process(context.Background(), &queue.RenderJobMessage{
		JobID: job.ID, DocumentID: 424242, Attempt: 1,
	})
	assert.Error(t, err)

	got, err := env.jobRepo.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RenderJobStatusFailed, got.Status)
}

func TestProcessor_RetryThenFail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	env := newProcessorEnv(t, db, &countingBackend{pages: 1})
	doc := testutil.TestDocument(t, db)
	job := createJob(t, env, doc.ID)
	cause := errors.New("render budget exhausted")

	// 第一次失败：退回队列，消息带着下一次的尝试序号
	err := env.processor.retryOrFail(context.Background(), job, &queue.RenderJobMessage{
		JobID: job.ID, DocumentID: doc.ID, Attempt: 1,
	}, cause)
	require.NoError(t, err)

	msg, err := env.queue.Pop(context.Background(), time.Second)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, 2, msg.Attempt)

	got, err := env.jobRepo.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RenderJobStatusQueued, got.Status)

	// 第二次失败：超过尝试上限，标记失败不再入队
	err = env.processor.retryOrFail(context.Background(), job, msg, cause)
	assert.ErrorIs(t, err, cause)

	got, err = env.jobRepo.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RenderJobStatusFailed, got.Status)

	n, err := env.queue.Length(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestProcessor_CompletedJobIsNoop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	env := newProcessorEnv(t, db, &countingBackend{pages: 2})
	doc := testutil.TestDocument(t, db)
	job := createJob(t, env, doc.ID)
	require.NoError(t, env.jobRepo.MarkCompleted(job.ID, 2, 2, 1))

	err := env.processor.Process(context.Background(), &queue.RenderJobMessage{
		JobID: job.ID, DocumentID: doc.ID, Attempt: 1,
	})
	require.NoError(t, err)
	assert.Zero(t, atomic.LoadInt32(&env.backend.renderCalls))
}
