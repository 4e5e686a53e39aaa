package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/Naakoi/uekera_go_server/config"
	"github.com/Naakoi/uekera_go_server/internal/model"
	"github.com/Naakoi/uekera_go_server/internal/pkg/oss"
	"github.com/Naakoi/uekera_go_server/internal/pkg/pdf"
	"github.com/Naakoi/uekera_go_server/internal/pkg/pubsub"
	"github.com/Naakoi/uekera_go_server/internal/pkg/queue"
	"github.com/Naakoi/uekera_go_server/internal/repository"
)

// Processor 整本预渲染任务处理器。每个任务把一期刊物的全部页面
// 渲染进页面缓存，跳过已缓存页，所以重试和重复入队都是幂等的。
type Processor struct {
	jobRepo   *repository.RenderJobRepository
	docRepo   *repository.DocumentRepository
	renderer  *pdf.Renderer
	cache     *pdf.PageCache
	renderQ   *queue.Queue
	ossClient *oss.Client
	publisher *pubsub.Publisher
	cfg       *config.Config
}

func NewProcessor(
	jobRepo *repository.RenderJobRepository,
	docRepo *repository.DocumentRepository,
	renderer *pdf.Renderer,
	cache *pdf.PageCache,
	renderQ *queue.Queue,
	ossClient *oss.Client,
	publisher *pubsub.Publisher,
	cfg *config.Config,
) *Processor {
	return &Processor{
		jobRepo:   jobRepo,
		docRepo:   docRepo,
		renderer:  renderer,
		cache:     cache,
		renderQ:   renderQ,
		ossClient: ossClient,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Process 处理一条渲染任务消息。整体有墙钟预算，超时或出错时
// 在尝试次数内退回队列，超过次数标记失败。部分完成是可接受的结果。
func (p *Processor) Process(ctx context.Context, msg *queue.RenderJobMessage) error {
	job, err := p.jobRepo.GetByID(msg.JobID)
	if err != nil {
		return fmt.Errorf("failed to get render job %d: %w", msg.JobID, err)
	}
	if job.Status == model.RenderJobStatusCompleted {
		log.Printf("任务 %d 已完成，跳过", job.ID)
		return nil
	}

	doc, err := p.docRepo.GetByID(job.DocumentID)
	if err != nil {
		if markErr := p.jobRepo.MarkFailed(job.ID, "document missing"); markErr != nil {
			log.Printf("标记任务 %d 失败出错: %v", job.ID, markErr)
		}
		return fmt.Errorf("failed to get document %d: %w", job.DocumentID, err)
	}

	if err := p.jobRepo.MarkProcessing(job.ID); err != nil {
		return err
	}
	started := time.Now()

	jobCtx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.Render.JobTimeoutSec)*time.Second)
	defer cancel()

	publish := func(step, status string, total, rendered int, errMsg string) {
		if p.publisher == nil {
			return
		}
		if err := p.publisher.PublishProgress(ctx, &pubsub.ProgressMessage{
			DocumentID:    doc.ID,
			JobID:         job.ID,
			Status:        status,
			Step:          step,
			PagesTotal:    total,
			PagesRendered: rendered,
			Error:         errMsg,
		}); err != nil {
			log.Printf("任务 %d 推送进度失败: %v", job.ID, err)
		}
	}

	publish(pubsub.StepCounting, "processing", 0, 0, "")

	total, err := p.renderer.GetPageCount(jobCtx, doc)
	if err != nil {
		// 页数拿不到就没有可渲染的范围，按完成收尾，按需渲染仍可兜底
		if errors.Is(err, pdf.ErrCountUnavailable) {
			log.Printf("任务 %d 页数不可用，跳过预渲染", job.ID)
			if markErr := p.jobRepo.MarkCompleted(job.ID, 0, 0, int(time.Since(started).Seconds())); markErr != nil {
				log.Printf("标记任务 %d 完成出错: %v", job.ID, markErr)
			}
			publish(pubsub.StepDone, "completed", 0, 0, "")
			return nil
		}
		return p.retryOrFail(ctx, job, msg, err)
	}

	rendered := 0
	for page := 1; page <= total; page++ {
		if jobCtx.Err() != nil {
			return p.retryOrFail(ctx, job, msg, fmt.Errorf("render budget exhausted at page %d/%d: %w", page, total, jobCtx.Err()))
		}

		// 已缓存的页直接计数，重跑不花渲染时间
		if p.cache.Has(doc.ID, page) {
			rendered++
			continue
		}

		res := p.renderer.GetPage(jobCtx, doc, page, p.cfg.Render.ArchivalDPI)
		if res.Placeholder {
			log.Printf("任务 %d 第 %d 页渲染失败: %s", job.ID, page, res.Diagnostic)
			continue
		}
		rendered++

		p.mirrorPage(doc.ID, page, res.Data)

		if err := p.jobRepo.UpdateFields(job.ID, map[string]interface{}{
			"pages_total":    total,
			"pages_rendered": rendered,
		}); err != nil {
			log.Printf("更新任务 %d 进度失败: %v", job.ID, err)
		}
		publish(pubsub.StepRendering, "processing", total, rendered, "")
	}

	p.ensureThumbnail(jobCtx, doc, publish)

	elapsed := int(time.Since(started).Seconds())
	if err := p.jobRepo.MarkCompleted(job.ID, total, rendered, elapsed); err != nil {
		return err
	}
	publish(pubsub.StepDone, "completed", total, rendered, "")
	log.Printf("任务 %d 完成: %d/%d 页, 耗时 %ds", job.ID, rendered, total, elapsed)
	return nil
}

// retryOrFail 在尝试次数内退回队列，否则标记失败
func (p *Processor) retryOrFail(ctx context.Context, job *model.RenderJob, msg *queue.RenderJobMessage, cause error) error {
	if msg.Attempt < p.cfg.Render.JobMaxAttempts {
		log.Printf("任务 %d 第 %d 次尝试失败，重新入队: %v", job.ID, msg.Attempt, cause)
		if err := p.jobRepo.Requeue(job.ID, cause.Error()); err != nil {
			return err
		}
		return p.renderQ.Push(ctx, &queue.RenderJobMessage{
			JobID:      msg.JobID,
			DocumentID: msg.DocumentID,
			Attempt:    msg.Attempt + 1,
		})
	}

	log.Printf("任务 %d 尝试 %d 次后放弃: %v", job.ID, msg.Attempt, cause)
	if err := p.jobRepo.MarkFailed(job.ID, cause.Error()); err != nil {
		return err
	}
	if p.publisher != nil {
		if err := p.publisher.PublishProgress(ctx, &pubsub.ProgressMessage{
			DocumentID: job.DocumentID,
			JobID:      job.ID,
			Status:     "failed",
			Error:      cause.Error(),
		}); err != nil {
			log.Printf("任务 %d 推送失败消息出错: %v", job.ID, err)
		}
	}
	return cause
}

// mirrorPage 尽力把渲染好的页面镜像到 OSS，失败只记日志
func (p *Processor) mirrorPage(documentID int64, page int, data []byte) {
	if p.ossClient == nil {
		return
	}
	if _, err := p.ossClient.UploadPageImage(documentID, page, data); err != nil {
		log.Printf("刊物 %d 第 %d 页镜像 OSS 失败: %v", documentID, page, err)
	}
}

// ensureThumbnail 上传时没生成出缩略图的，收尾时补一张
func (p *Processor) ensureThumbnail(ctx context.Context, doc *model.Document, publish func(step, status string, total, rendered int, errMsg string)) {
	if doc.ThumbnailPath != nil {
		if _, err := os.Stat(*doc.ThumbnailPath); err == nil {
			return
		}
	}

	publish(pubsub.StepThumbnail, "processing", 0, 0, "")

	data, err := p.renderer.RenderPage(ctx, doc.FilePath, 1, p.cfg.Render.InteractiveDPI)
	if err != nil {
		log.Printf("刊物 %d 补缩略图失败: %v", doc.ID, err)
		return
	}

	thumbPath := filepath.Join(p.cfg.Storage.ThumbnailDir, fmt.Sprintf("%d.png", doc.ID))
	if err := os.MkdirAll(p.cfg.Storage.ThumbnailDir, 0755); err != nil {
		log.Printf("创建缩略图目录失败: %v", err)
		return
	}
	if err := os.WriteFile(thumbPath, data, 0644); err != nil {
		log.Printf("写缩略图失败: %v", err)
		return
	}

	fields := map[string]interface{}{"thumbnail_path": thumbPath}
	if p.ossClient != nil {
		if url, err := p.ossClient.UploadThumbnail(doc.ID, data); err == nil {
			fields["thumbnail_url"] = url
		}
	}
	if err := p.docRepo.UpdateFields(doc.ID, fields); err != nil {
		log.Printf("更新刊物 %d 缩略图字段失败: %v", doc.ID, err)
	}
}
