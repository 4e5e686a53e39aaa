package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Naakoi/uekera_go_server/config"
	"github.com/Naakoi/uekera_go_server/internal/model"
	"github.com/Naakoi/uekera_go_server/internal/model/dto"
	"github.com/Naakoi/uekera_go_server/internal/pkg/oss"
	"github.com/Naakoi/uekera_go_server/internal/pkg/pdf"
	"github.com/Naakoi/uekera_go_server/internal/pkg/queue"
	"github.com/Naakoi/uekera_go_server/internal/repository"
)

var (
	ErrDocumentNotFound = errors.New("刊物不存在")
	ErrInvalidFileType  = errors.New("只支持 PDF 文件")
	ErrFileTooLarge     = errors.New("文件超过大小限制")
)

type DocumentService struct {
	docRepo     *repository.DocumentRepository
	jobRepo     *repository.RenderJobRepository
	accessSvc   *AccessService
	renderer    *pdf.Renderer
	renderQueue *queue.Queue
	ossClient   *oss.Client
	cfg         *config.Config
}

func NewDocumentService(
	docRepo *repository.DocumentRepository,
	jobRepo *repository.RenderJobRepository,
	accessSvc *AccessService,
	renderer *pdf.Renderer,
	renderQueue *queue.Queue,
	ossClient *oss.Client,
	cfg *config.Config,
) *DocumentService {
	return &DocumentService{
		docRepo:     docRepo,
		jobRepo:     jobRepo,
		accessSvc:   accessSvc,
		renderer:    renderer,
		renderQueue: renderQueue,
		ossClient:   ossClient,
		cfg:         cfg,
	}
}

// Upload 上传新刊物：落盘 PDF、建档、生成首页缩略图，
// 最后把整本预渲染任务推进队列交给 worker
func (s *DocumentService) Upload(ctx context.Context, title, description string, price float64, filename string, file io.Reader, size int64) (*dto.UploadDocumentResponse, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil, ErrInvalidFileType
	}
	if s.cfg.Upload.MaxSize > 0 && size > s.cfg.Upload.MaxSize {
		return nil, ErrFileTooLarge
	}

	now := time.Now()
	doc := &model.Document{
		Title:       title,
		Description: description,
		Price:       price,
		FilePath:    "pending",
		PublishedAt: &now,
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, err
	}

	destPath := filepath.Join(s.cfg.Storage.DocumentDir, fmt.Sprintf("%d.pdf", doc.ID))
	if err := saveFile(file, destPath); err != nil {
		// 落盘失败就回滚建档
		if delErr := s.docRepo.Delete(doc.ID); delErr != nil {
			log.Printf("回滚刊物 %d 失败: %v", doc.ID, delErr)
		}
		return nil, err
	}

	if err := s.docRepo.UpdateFields(doc.ID, map[string]interface{}{"file_path": destPath}); err != nil {
		return nil, err
	}
	doc.FilePath = destPath

	s.generateThumbnail(ctx, doc)

	job := &model.RenderJob{DocumentID: doc.ID, Status: model.RenderJobStatusQueued}
	if err := s.jobRepo.Create(job); err != nil {
		return nil, err
	}

	if err := s.renderQueue.Push(ctx, &queue.RenderJobMessage{
		JobID:      job.ID,
		DocumentID: doc.ID,
		Attempt:    1,
	}); err != nil {
		log.Printf("刊物 %d 渲染任务入队失败: %v", doc.ID, err)
		if markErr := s.jobRepo.MarkFailed(job.ID, "enqueue failed: "+err.Error()); markErr != nil {
			log.Printf("标记任务 %d 失败出错: %v", job.ID, markErr)
		}
	}

	return &dto.UploadDocumentResponse{DocumentID: doc.ID, JobID: job.ID}, nil
}

// generateThumbnail 渲染首页做封面，存本地并尽力镜像到 OSS。
// 缩略图失败不阻塞上传，worker 收尾时还会补一次。
func (s *DocumentService) generateThumbnail(ctx context.Context, doc *model.Document) {
	data, err := s.renderer.RenderPage(ctx, doc.FilePath, 1, s.cfg.Render.InteractiveDPI)
	if err != nil {
		log.Printf("刊物 %d 生成缩略图失败: %v", doc.ID, err)
		return
	}

	thumbPath := filepath.Join(s.cfg.Storage.ThumbnailDir, fmt.Sprintf("%d.png", doc.ID))
	if err := os.MkdirAll(s.cfg.Storage.ThumbnailDir, 0755); err != nil {
		log.Printf("创建缩略图目录失败: %v", err)
		return
	}
	if err := os.WriteFile(thumbPath, data, 0644); err != nil {
		log.Printf("写缩略图失败: %v", err)
		return
	}

	fields := map[string]interface{}{"thumbnail_path": thumbPath}
	if s.ossClient != nil {
		if url, err := s.ossClient.UploadThumbnail(doc.ID, data); err != nil {
			log.Printf("刊物 %d 缩略图上传 OSS 失败: %v", doc.ID, err)
		} else {
			fields["thumbnail_url"] = url
		}
	}

	if err := s.docRepo.UpdateFields(doc.ID, fields); err != nil {
		log.Printf("更新刊物 %d 缩略图字段失败: %v", doc.ID, err)
	}
}

// List 刊物列表，带每条的访问标记
func (s *DocumentService) List(identity model.Identity, page, pageSize int, search string) ([]*dto.DocumentListItem, int64, error) {
	docs, total, err := s.docRepo.List(page, pageSize, search, true)
	if err != nil {
		return nil, 0, err
	}

	fullAccess := s.accessSvc.HasFullAccess(identity)

	items := make([]*dto.DocumentListItem, 0, len(docs))
	for _, doc := range docs {
		item := buildDocumentItem(doc)
		if fullAccess {
			item.HasAccess = true
		} else {
			item.HasAccess = s.accessSvc.CanAccess(identity, doc.ID)
		}
		items = append(items, item)
	}
	return items, total, nil
}

// Detail 刊物详情
func (s *DocumentService) Detail(identity model.Identity, id int64) (*dto.DocumentDetail, error) {
	doc, err := s.getDocument(id)
	if err != nil {
		return nil, err
	}

	item := buildDocumentItem(doc)
	item.HasAccess = s.accessSvc.CanAccess(identity, doc.ID)

	return &dto.DocumentDetail{
		DocumentListItem: *item,
		CreatedAt:        doc.CreatedAt.Format(time.RFC3339),
	}, nil
}

// ReaderInfo 阅读器初始化：页数加访问判定。页数拿不到时返回 0，
// 客户端按"未知"处理，不影响已缓存页面的读取。
func (s *DocumentService) ReaderInfo(ctx context.Context, identity model.Identity, id int64) (*dto.ReaderInfo, error) {
	doc, err := s.getDocument(id)
	if err != nil {
		return nil, err
	}

	count, err := s.renderer.GetPageCount(ctx, doc)
	if err != nil {
		if !errors.Is(err, pdf.ErrCountUnavailable) {
			return nil, err
		}
		count = 0
	}

	return &dto.ReaderInfo{
		DocumentID: doc.ID,
		Title:      doc.Title,
		PageCount:  count,
		HasAccess:  s.accessSvc.CanAccess(identity, doc.ID),
	}, nil
}

// GetPage 渲染单页，权限校验由上层中间件完成。
// 按需渲染有独立的墙钟预算，超时后由占位图兜底。
func (s *DocumentService) GetPage(ctx context.Context, id int64, page int) (*pdf.Result, error) {
	doc, err := s.getDocument(id)
	if err != nil {
		return nil, err
	}

	if s.cfg.Render.RequestTimeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.Render.RequestTimeoutSec)*time.Second)
		defer cancel()
	}

	return s.renderer.GetPage(ctx, doc, page, s.cfg.Render.InteractiveDPI), nil
}

// Library 主体可读的刊物集合
func (s *DocumentService) Library(identity model.Identity) ([]*dto.DocumentListItem, error) {
	docs, err := s.accessSvc.ListAccessible(identity)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.DocumentListItem, 0, len(docs))
	for _, doc := range docs {
		item := buildDocumentItem(doc)
		item.HasAccess = true
		items = append(items, item)
	}
	return items, nil
}

// GetByID 取原始刊物记录（staff 下载原件用）
func (s *DocumentService) GetByID(id int64) (*model.Document, error) {
	return s.getDocument(id)
}

// Delete 删除刊物及其附属文件和页面缓存
func (s *DocumentService) Delete(id int64) error {
	doc, err := s.getDocument(id)
	if err != nil {
		return err
	}

	if err := s.docRepo.Delete(id); err != nil {
		return err
	}

	if doc.FilePath != "" {
		if err := os.Remove(doc.FilePath); err != nil && !os.IsNotExist(err) {
			log.Printf("删除刊物 %d 原件失败: %v", id, err)
		}
	}
	if doc.ThumbnailPath != nil {
		if err := os.Remove(*doc.ThumbnailPath); err != nil && !os.IsNotExist(err) {
			log.Printf("删除刊物 %d 缩略图失败: %v", id, err)
		}
	}

	cache := pdf.NewPageCache(s.cfg.Storage.PageCacheDir)
	if err := cache.RemoveDocument(id); err != nil {
		log.Printf("删除刊物 %d 页面缓存失败: %v", id, err)
	}

	return nil
}

func (s *DocumentService) getDocument(id int64) (*model.Document, error) {
	doc, err := s.docRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

func buildDocumentItem(doc *model.Document) *dto.DocumentListItem {
	item := &dto.DocumentListItem{
		ID:          doc.ID,
		Title:       doc.Title,
		Description: doc.Description,
		Price:       doc.Price,
	}
	if doc.PageCount != nil {
		item.PageCount = *doc.PageCount
	}
	if doc.ThumbnailURL != nil {
		item.ThumbnailURL = *doc.ThumbnailURL
	} else if doc.ThumbnailPath != nil {
		item.ThumbnailURL = fmt.Sprintf("/api/v1/documents/%d/thumbnail", doc.ID)
	}
	if doc.PublishedAt != nil {
		item.PublishedAt = doc.PublishedAt.Format(time.RFC3339)
	}
	return item
}

func saveFile(src io.Reader, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create document dir: %w", err)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
