// internal/llm/providers/openai/images.go
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/Alwrity/ContentStudio/internal/llm"
)

func init() {
	llm.RegisterImage("openai", func() llm.ImageProvider {
		return &ImageProvider{}
	})
}

// ImageProvider OpenAI图像生成提供者
type ImageProvider struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	defaultModel string
}

func (p *ImageProvider) Initialize(config map[string]string) error {
	apiKey, exists := config["api_key"]
	if !exists || apiKey == "" {
		return errors.New("openai api密钥未提供")
	}

	p.apiKey = apiKey
	p.client = &http.Client{}

	if model, exists := config["default_model"]; exists && model != "" {
		p.defaultModel = model
	} else {
		p.defaultModel = "gpt-image-1"
	}

	if baseURL, exists := config["base_url"]; exists && baseURL != "" {
		p.baseURL = baseURL
	} else {
		p.baseURL = "https://api.openai.com"
	}

	return nil
}

func (p *ImageProvider) GetName() string {
	return "OpenAI Images"
}

// GenerateImage 调用图像生成接口，返回解码后的PNG字节
func (p *ImageProvider) GenerateImage(ctx context.Context, req llm.ImageRequest) (*llm.ImageResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	requestBody := map[string]interface{}{
		"model":  model,
		"prompt": req.Prompt,
	}
	if req.Size != "" {
		requestBody["size"] = req.Size
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		"POST",
		p.baseURL+"/v1/images/generations",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	return p.doImageRequest(httpReq, model)
}

// EditImage 调用图像编辑接口，源图像以multipart上传
func (p *ImageProvider) EditImage(ctx context.Context, req llm.ImageRequest) (*llm.ImageResponse, error) {
	if len(req.SourceImage) == 0 {
		return nil, errors.New("编辑模式需要源图像")
	}

	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", "source.png")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(req.SourceImage); err != nil {
		return nil, err
	}

	writer.WriteField("model", model)
	writer.WriteField("prompt", req.Prompt)
	if req.Size != "" {
		writer.WriteField("size", req.Size)
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/v1/images/edits", &body)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	return p.doImageRequest(httpReq, model)
}

// doImageRequest 发送请求并解码base64图像数据
func (p *ImageProvider) doImageRequest(httpReq *http.Request, model string) (*llm.ImageResponse, error) {
	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("openai images api错误(%d): %s", httpResp.StatusCode, string(respBody))
	}

	var response struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}

	if err := json.NewDecoder(httpResp.Body).Decode(&response); err != nil {
		return nil, err
	}

	if len(response.Data) == 0 || response.Data[0].B64JSON == "" {
		return nil, errors.New("OpenAI未返回图像数据")
	}

	data, err := base64.StdEncoding.DecodeString(response.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("解码图像数据失败: %w", err)
	}

	return &llm.ImageResponse{
		Data:      data,
		MimeType:  "image/png",
		ModelName: model,
	}, nil
}
