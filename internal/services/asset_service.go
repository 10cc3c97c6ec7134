// internal/services/asset_service.go
package services

import (
	"fmt"
	"sort"
	"time"

	apperrors "github.com/Alwrity/ContentStudio/internal/errors"
	"github.com/Alwrity/ContentStudio/internal/models"
	"github.com/Alwrity/ContentStudio/internal/storage"
	"github.com/Alwrity/ContentStudio/internal/utils"

	"github.com/google/uuid"
)

// AssetService 内容资产库
// 元数据与文件分目录存放，来自研究/图像流程的入库是尽力而为的
type AssetService struct {
	fs *storage.FileStorage
}

const (
	assetMetaDir = "assets/meta"
	assetFileDir = "assets/files"
)

// NewAssetService 创建资产服务
func NewAssetService(fs *storage.FileStorage) *AssetService {
	return &AssetService{fs: fs}
}

var mimeExtensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/webp":    ".webp",
	"text/markdown": ".md",
	"text/plain":    ".txt",
}

func extForMime(mimeType string) string {
	if ext, ok := mimeExtensions[mimeType]; ok {
		return ext
	}
	return ".bin"
}

// SaveAsset 写入资产文件及其元数据
func (s *AssetService) SaveAsset(assetType models.AssetType, title string, data []byte, mimeType string, tags []string) (*models.ContentAsset, error) {
	if len(data) == 0 {
		return nil, apperrors.NewValidationError("资产内容不能为空", nil)
	}

	id := uuid.NewString()
	filename := id + extForMime(mimeType)

	if err := s.fs.SaveFile(assetFileDir, filename, data); err != nil {
		return nil, fmt.Errorf("保存资产文件失败: %w", err)
	}

	if title == "" {
		title = "资产 " + time.Now().Format("2006-01-02 15:04")
	}

	asset := &models.ContentAsset{
		ID:        id,
		Type:      assetType,
		Title:     title,
		Path:      assetFileDir + "/" + filename,
		MimeType:  mimeType,
		Tags:      tags,
		SizeBytes: int64(len(data)),
		CreatedAt: time.Now(),
	}

	if err := s.fs.SaveJSONFile(assetMetaDir, id+".json", asset); err != nil {
		// 元数据写失败时回收文件，避免孤儿
		s.fs.DeleteFile(assetFileDir, filename)
		return nil, fmt.Errorf("保存资产元数据失败: %w", err)
	}

	return asset, nil
}

// SaveAssetBestEffort 尽力而为的入库，失败只记日志
// 供研究/图像流程在后台调用
func (s *AssetService) SaveAssetBestEffort(assetType models.AssetType, title string, data []byte, mimeType string, tags []string) *models.ContentAsset {
	asset, err := s.SaveAsset(assetType, title, data, mimeType, tags)
	if err != nil {
		utils.GetLogger().Warn("Best-effort asset save failed", map[string]interface{}{
			"title": title,
			"error": err.Error(),
		})
		return nil
	}
	return asset
}

// GetAsset 读取资产元数据
func (s *AssetService) GetAsset(id string) (*models.ContentAsset, error) {
	if !s.fs.FileExists(assetMetaDir, id+".json") {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("资产不存在: %s", id), nil)
	}

	var asset models.ContentAsset
	if err := s.fs.LoadJSONFile(assetMetaDir, id+".json", &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

// GetAssetData 读取资产文件内容
func (s *AssetService) GetAssetData(id string) (*models.ContentAsset, []byte, error) {
	asset, err := s.GetAsset(id)
	if err != nil {
		return nil, nil, err
	}

	filename := id + extForMime(asset.MimeType)
	data, err := s.fs.LoadFile(assetFileDir, filename)
	if err != nil {
		return nil, nil, fmt.Errorf("读取资产文件失败: %w", err)
	}
	return asset, data, nil
}

// ListAssets 列出所有资产，按创建时间倒序
func (s *AssetService) ListAssets() ([]*models.ContentAsset, error) {
	files, err := s.fs.ListFiles(assetMetaDir, ".json")
	if err != nil {
		return nil, err
	}

	assets := make([]*models.ContentAsset, 0, len(files))
	for _, file := range files {
		var asset models.ContentAsset
		if err := s.fs.LoadJSONFile(assetMetaDir, file, &asset); err != nil {
			// 跳过损坏的元数据
			continue
		}
		assets = append(assets, &asset)
	}

	sort.Slice(assets, func(i, j int) bool {
		return assets[i].CreatedAt.After(assets[j].CreatedAt)
	})

	return assets, nil
}

// DeleteAsset 删除资产及其文件
func (s *AssetService) DeleteAsset(id string) error {
	asset, err := s.GetAsset(id)
	if err != nil {
		return err
	}

	filename := id + extForMime(asset.MimeType)
	if s.fs.FileExists(assetFileDir, filename) {
		if err := s.fs.DeleteFile(assetFileDir, filename); err != nil {
			return fmt.Errorf("删除资产文件失败: %w", err)
		}
	}

	return s.fs.DeleteFile(assetMetaDir, id+".json")
}
