// internal/api/asset_handlers.go
package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/Alwrity/ContentStudio/internal/models"
	"github.com/gin-gonic/gin"
)

// 上传资产的大小上限
const maxAssetUploadBytes = 10 << 20

// ListAssets 列出资产库中的所有资产
func (h *Handler) ListAssets(c *gin.Context) {
	assets, err := h.AssetService.ListAssets()
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, gin.H{"assets": assets, "total": len(assets)})
}

// GetAsset 读取资产元数据
func (h *Handler) GetAsset(c *gin.Context) {
	id := c.Param("id")

	asset, err := h.AssetService.GetAsset(id)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, asset)
}

// GetAssetData 以原始MIME类型返回资产文件内容
func (h *Handler) GetAssetData(c *gin.Context) {
	id := c.Param("id")

	asset, data, err := h.AssetService.GetAssetData(id)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	mimeType := asset.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	c.Data(http.StatusOK, mimeType, data)
}

// UploadAsset 上传文件入库
// multipart表单：file必填，title/tags可选
func (h *Handler) UploadAsset(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.Response.BadRequest(c, "缺少上传文件", err.Error())
		return
	}
	if fileHeader.Size > maxAssetUploadBytes {
		h.Response.BadRequest(c, "文件过大")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.Response.InternalError(c, "读取上传文件失败", err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAssetUploadBytes+1))
	if err != nil {
		h.Response.InternalError(c, "读取上传文件失败", err.Error())
		return
	}
	if len(data) > maxAssetUploadBytes {
		h.Response.BadRequest(c, "文件过大")
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	assetType := models.AssetTypeDocument
	if strings.HasPrefix(mimeType, "image/") {
		assetType = models.AssetTypeImage
	}

	title := c.PostForm("title")
	if title == "" {
		title = fileHeader.Filename
	}

	var tags []string
	if raw := c.PostForm("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	asset, err := h.AssetService.SaveAsset(assetType, title, data, mimeType, tags)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Created(c, asset)
}

// DeleteAsset 删除资产及其文件
func (h *Handler) DeleteAsset(c *gin.Context) {
	id := c.Param("id")

	if err := h.AssetService.DeleteAsset(id); err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, gin.H{"id": id, "deleted": true})
}

// ========================================
// 图像工作室
// ========================================

// GenerateImage 根据提示词生成图像
func (h *Handler) GenerateImage(c *gin.Context) {
	var req models.ImageGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求格式错误", err.Error())
		return
	}

	result, err := h.ImageStudioService.GenerateImage(c.Request.Context(), &req)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, result)
}

// EditImage 基于资产库源图像进行编辑
func (h *Handler) EditImage(c *gin.Context) {
	var req models.ImageEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求格式错误", err.Error())
		return
	}

	result, err := h.ImageStudioService.EditImage(c.Request.Context(), &req)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, result)
}

// GetImageStudioStatus 返回图像提供商就绪状态
func (h *Handler) GetImageStudioStatus(c *gin.Context) {
	h.Response.Success(c, gin.H{"ready": h.ImageStudioService.IsReady()})
}
