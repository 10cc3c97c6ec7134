// internal/models/asset.go
package models

import "time"

// AssetType 资产类型
type AssetType string

const (
	AssetTypeImage    AssetType = "image"
	AssetTypeDocument AssetType = "document"
)

// ContentAsset 内容资产库条目
type ContentAsset struct {
	ID        string    `json:"id"`
	Type      AssetType `json:"type"`
	Title     string    `json:"title"`
	Path      string    `json:"path"`              // 数据目录下的相对路径
	MimeType  string    `json:"mime_type,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	SizeBytes int64     `json:"size_bytes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
