// internal/models/image.go
package models

import "time"

// ImageGenerateRequest 图像生成请求
type ImageGenerateRequest struct {
	Prompt      string `json:"prompt"`
	Style       string `json:"style,omitempty"`
	AspectRatio string `json:"aspect_ratio,omitempty"` // 1:1, 16:9, 9:16
	SaveToLib   bool   `json:"save_to_library"`
	Title       string `json:"title,omitempty"`
}

// ImageEditRequest 图像编辑请求
type ImageEditRequest struct {
	AssetID   string `json:"asset_id"` // 资产库中的源图像
	Prompt    string `json:"prompt"`
	SaveToLib bool   `json:"save_to_library"`
	Title     string `json:"title,omitempty"`
}

// ImageResult 图像生成/编辑结果
// Data 经JSON序列化后为base64，未入库时是客户端拿到图像的唯一途径
type ImageResult struct {
	AssetID     string    `json:"asset_id,omitempty"` // 入库成功时的资产ID
	Path        string    `json:"path,omitempty"`
	Data        []byte    `json:"data,omitempty"`
	MimeType    string    `json:"mime_type,omitempty"`
	Prompt      string    `json:"prompt"`
	Model       string    `json:"model,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}
