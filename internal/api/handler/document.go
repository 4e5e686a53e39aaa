package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Naakoi/uekera_go_server/internal/api/middleware"
	"github.com/Naakoi/uekera_go_server/internal/pkg/response"
	"github.com/Naakoi/uekera_go_server/internal/service"
)

type DocumentHandler struct {
	docService *service.DocumentService
}

func NewDocumentHandler(docService *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{docService: docService}
}

// List 刊物列表
// GET /api/v1/documents
func (h *DocumentHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)
	identity := middleware.GetIdentity(c)

	items, total, err := h.docService.List(identity, page, pageSize, c.Query("search"))
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Detail 刊物详情
// GET /api/v1/documents/:id
func (h *DocumentHandler) Detail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的刊物 ID")
		return
	}

	detail, err := h.docService.Detail(middleware.GetIdentity(c), id)
	if err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, detail)
}

// Reader 阅读器初始化信息
// GET /api/v1/documents/:id/reader
func (h *DocumentHandler) Reader(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的刊物 ID")
		return
	}

	info, err := h.docService.ReaderInfo(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, info)
}

// PageImage 单页 PNG。访问控制由路由上的中间件完成，
// 这里总是出图：渲染不了的页返回占位图而不是错误码。
// GET /api/v1/documents/:id/pages/:page
func (h *DocumentHandler) PageImage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的刊物 ID")
		return
	}
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil || page < 1 {
		response.ParamError(c, "无效的页码")
		return
	}

	result, err := h.docService.GetPage(c.Request.Context(), id, page)
	if err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	if result.FromCache {
		c.Header("Cache-Control", "public, max-age=86400")
	} else if result.Placeholder {
		// 占位图不缓存，下次请求有机会渲染成功
		c.Header("Cache-Control", "no-store")
		c.Header("X-Render-Status", "placeholder")
	}
	c.Data(200, "image/png", result.Data)
}

// Thumbnail 刊物封面
// GET /api/v1/documents/:id/thumbnail
func (h *DocumentHandler) Thumbnail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的刊物 ID")
		return
	}

	doc, err := h.docService.GetByID(id)
	if err != nil {
		response.NotFoundError(c, "刊物不存在")
		return
	}
	if doc.ThumbnailPath == nil {
		response.NotFoundError(c, "封面尚未生成")
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.File(*doc.ThumbnailPath)
}

// Library 当前主体可读的刊物
// GET /api/v1/library
func (h *DocumentHandler) Library(c *gin.Context) {
	items, err := h.docService.Library(middleware.GetIdentity(c))
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, items)
}

// Upload 上传新刊物
// POST /api/v1/documents
func (h *DocumentHandler) Upload(c *gin.Context) {
	title := c.PostForm("title")
	if title == "" {
		response.ParamError(c, "标题不能为空")
		return
	}
	description := c.PostForm("description")
	price, _ := strconv.ParseFloat(c.DefaultPostForm("price", "0"), 64)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.ParamError(c, "请上传 PDF 文件")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.ServerError(c, "")
		return
	}
	defer file.Close()

	resp, err := h.docService.Upload(c.Request.Context(), title, description, price,
		fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidFileType):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrFileTooLarge):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "上传成功，后台预渲染已开始", resp)
}

// Download 对外的原件下载入口，始终拒绝。
// 付费内容只通过逐页图片开放，原件仅限员工走 stream。
// GET /api/v1/documents/:id/download
func (h *DocumentHandler) Download(c *gin.Context) {
	response.PermissionError(c, "原件不提供下载")
}

// Stream 下载原始 PDF，仅限员工
// GET /api/v1/documents/:id/stream
func (h *DocumentHandler) Stream(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的刊物 ID")
		return
	}

	doc, err := h.docService.GetByID(id)
	if err != nil {
		response.NotFoundError(c, "刊物不存在")
		return
	}

	c.FileAttachment(doc.FilePath, doc.Title+".pdf")
}

// Delete 删除刊物
// DELETE /api/v1/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的刊物 ID")
		return
	}

	if err := h.docService.Delete(id); err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "已删除", nil)
}
