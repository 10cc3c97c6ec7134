// internal/services/imagestudio_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Alwrity/ContentStudio/internal/config"
	apperrors "github.com/Alwrity/ContentStudio/internal/errors"
	"github.com/Alwrity/ContentStudio/internal/llm"
	"github.com/Alwrity/ContentStudio/internal/models"
	"github.com/Alwrity/ContentStudio/internal/utils"
)

// ImageStudioService 图像工作室：生成与编辑
// 校验失败在任何网络调用之前返回；完成的图像尽力入库
type ImageStudioService struct {
	providerMutex sync.RWMutex
	provider      llm.ImageProvider
	providerName  string
	assets        *AssetService
}

// 宽高比到提供商尺寸参数的映射
var aspectRatioSizes = map[string]string{
	"1:1":  "1024x1024",
	"16:9": "1792x1024",
	"9:16": "1024x1792",
}

// NewImageStudioService 创建图像工作室服务
// 提供商未配置时返回未就绪的服务，调用时报错
func NewImageStudioService(assets *AssetService) *ImageStudioService {
	s := &ImageStudioService{assets: assets}

	cfg := config.GetCurrentConfig()
	if cfg == nil || cfg.ImageProvider == "" {
		return s
	}
	if cfg.ImageConfig == nil || cfg.ImageConfig["api_key"] == "" {
		return s
	}

	provider, err := llm.GetImageProvider(cfg.ImageProvider, cfg.ImageConfig)
	if err != nil {
		utils.GetLogger().Warn("Image provider initialization failed", map[string]interface{}{
			"provider": cfg.ImageProvider,
			"error":    err.Error(),
		})
		return s
	}

	s.provider = provider
	s.providerName = cfg.ImageProvider
	return s
}

// IsReady 返回图像提供商是否可用
func (s *ImageStudioService) IsReady() bool {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.provider != nil
}

// UpdateProvider 更新图像提供商配置
func (s *ImageStudioService) UpdateProvider(providerName string, providerConfig map[string]string) error {
	provider, err := llm.GetImageProvider(providerName, providerConfig)
	if err != nil {
		return err
	}

	s.providerMutex.Lock()
	defer s.providerMutex.Unlock()
	s.provider = provider
	s.providerName = providerName
	return nil
}

// GenerateImage 根据提示词生成图像
func (s *ImageStudioService) GenerateImage(ctx context.Context, req *models.ImageGenerateRequest) (*models.ImageResult, error) {
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, apperrors.NewValidationError("图像提示词不能为空", nil)
	}
	if req.AspectRatio != "" {
		if _, ok := aspectRatioSizes[req.AspectRatio]; !ok {
			return nil, apperrors.NewValidationError(fmt.Sprintf("不支持的宽高比: %s", req.AspectRatio), nil)
		}
	}

	s.providerMutex.RLock()
	provider := s.provider
	s.providerMutex.RUnlock()
	if provider == nil {
		return nil, apperrors.NewUnavailableError("图像提供商未配置", nil)
	}

	prompt := buildImagePrompt(req.Prompt, req.Style)
	resp, err := provider.GenerateImage(ctx, llm.ImageRequest{
		Prompt: prompt,
		Size:   aspectRatioSizes[req.AspectRatio],
	})
	if err != nil {
		return nil, fmt.Errorf("图像生成失败: %w", err)
	}

	return s.buildResult(resp, prompt, req.Title, req.SaveToLib), nil
}

// EditImage 基于资产库中的源图像进行编辑
func (s *ImageStudioService) EditImage(ctx context.Context, req *models.ImageEditRequest) (*models.ImageResult, error) {
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, apperrors.NewValidationError("图像提示词不能为空", nil)
	}
	if req.AssetID == "" {
		return nil, apperrors.NewValidationError("编辑模式需要源图像资产ID", nil)
	}

	s.providerMutex.RLock()
	provider := s.provider
	s.providerMutex.RUnlock()
	if provider == nil {
		return nil, apperrors.NewUnavailableError("图像提供商未配置", nil)
	}

	if s.assets == nil {
		return nil, fmt.Errorf("资产服务未初始化")
	}
	asset, sourceData, err := s.assets.GetAssetData(req.AssetID)
	if err != nil {
		return nil, err
	}
	if asset.Type != models.AssetTypeImage {
		return nil, apperrors.NewValidationError(fmt.Sprintf("资产 %s 不是图像", req.AssetID), nil)
	}

	resp, err := provider.EditImage(ctx, llm.ImageRequest{
		Prompt:      req.Prompt,
		SourceImage: sourceData,
	})
	if err != nil {
		return nil, fmt.Errorf("图像编辑失败: %w", err)
	}

	return s.buildResult(resp, req.Prompt, req.Title, req.SaveToLib), nil
}

// buildResult 把提供商响应转为结果，按需尽力入库
func (s *ImageStudioService) buildResult(resp *llm.ImageResponse, prompt, title string, saveToLib bool) *models.ImageResult {
	result := &models.ImageResult{
		Data:        resp.Data,
		MimeType:    resp.MimeType,
		Prompt:      prompt,
		Model:       resp.ModelName,
		CompletedAt: time.Now(),
	}

	if saveToLib && s.assets != nil {
		if title == "" {
			title = truncateText(prompt, 60)
		}
		if asset := s.assets.SaveAssetBestEffort(models.AssetTypeImage, title, resp.Data, resp.MimeType, []string{"image-studio"}); asset != nil {
			result.AssetID = asset.ID
			result.Path = asset.Path
		}
	}

	return result
}

// buildImagePrompt 把风格拼进提示词
func buildImagePrompt(prompt, style string) string {
	prompt = strings.TrimSpace(prompt)
	if style = strings.TrimSpace(style); style != "" {
		return prompt + ", " + style + " style"
	}
	return prompt
}
