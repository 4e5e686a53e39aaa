package dto

// DocumentListItem 刊物列表项
type DocumentListItem struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description,omitempty"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
	Price        float64 `json:"price"`
	PageCount    int     `json:"page_count"` // 0 表示未知，不表示空刊
	PublishedAt  string  `json:"published_at,omitempty"`
	HasAccess    bool    `json:"has_access"`
}

// DocumentDetail 刊物详情
type DocumentDetail struct {
	DocumentListItem
	CreatedAt string `json:"created_at"`
}

// ReaderInfo 阅读器初始化信息
type ReaderInfo struct {
	DocumentID int64  `json:"document_id"`
	Title      string `json:"title"`
	PageCount  int    `json:"page_count"`
	HasAccess  bool   `json:"has_access"`
}

// UploadDocumentResponse 上传响应
type UploadDocumentResponse struct {
	DocumentID int64 `json:"document_id"`
	JobID      int64 `json:"job_id,omitempty"`
}
