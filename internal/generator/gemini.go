package generator

import (
	"context"
	"fmt"

	"github.com/nobita6986/Img-Gen/internal/domain"

	"google.golang.org/genai"
)

// Image は生成された画像データとそのメタデータです。
type Image struct {
	Data     []byte
	MimeType string
}

// ImageGenerator は画像生成の外部境界を抽象化します。
// runner やハンドラーはこのインターフェースにのみ依存し、テストではモックに差し替えます。
type ImageGenerator interface {
	// GenerateWithReference は参照画像とプロンプトから画像を生成します。
	GenerateWithReference(ctx context.Context, prompt string, ref domain.ReferenceImage) (Image, error)
	// GenerateWithAspectRatio はプロンプトとアスペクト比から画像を生成します。
	GenerateWithAspectRatio(ctx context.Context, prompt, aspectRatio string) (Image, error)
}

// GeminiClient は google.golang.org/genai を用いた ImageGenerator の実装です。
// クレデンシャルはユーザーが実行時に登録するため、キーごとにクライアントを構築します。
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient は指定された API キーとモデル名でクライアントを初期化します。
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is empty", ErrInvalidCredential)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai クライアントの初期化に失敗しました: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

// GenerateWithReference は参照画像を添えて画像を生成します。
func (c *GeminiClient) GenerateWithReference(ctx context.Context, prompt string, ref domain.ReferenceImage) (Image, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(ref.Data, ref.MimeType),
	}
	return c.generate(ctx, parts, nil)
}

// GenerateWithAspectRatio はプロンプトのみから、指定アスペクト比で画像を生成します。
func (c *GeminiClient) GenerateWithAspectRatio(ctx context.Context, prompt, aspectRatio string) (Image, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}

	var imageCfg *genai.ImageConfig
	if aspectRatio != "" {
		imageCfg = &genai.ImageConfig{AspectRatio: aspectRatio}
	}
	return c.generate(ctx, parts, imageCfg)
}

func (c *GeminiClient) generate(ctx context.Context, parts []*genai.Part, imageCfg *genai.ImageConfig) (Image, error) {
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig:        imageCfg,
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return Image{}, ClassifyError(err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return Image{
					Data:     part.InlineData.Data,
					MimeType: part.InlineData.MIMEType,
				}, nil
			}
		}
	}

	return Image{}, fmt.Errorf("応答に画像データが含まれていません (model: %s)", c.model)
}
