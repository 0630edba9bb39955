package generator

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// 失敗分類のためのセンチネルエラー。
// レート制限のみがリトライ対象で、クレデンシャル無効はバッチの残りを停止させます。
var (
	ErrRateLimited       = errors.New("rate limited by generation API")
	ErrInvalidCredential = errors.New("invalid credential")
)

// 上流サービスが構造化エラーコードを返さない場合に備えた互換用の検出文字列。
// 既存フロントエンドとの互換性のため、この文言は変更しないこと。
const (
	phraseAPIKeyNotValid = "API key not valid"
	phraseEntityNotFound = "Requested entity was not found"
)

// ClassifyError は生成 API の失敗を分類し、対応するセンチネルでラップして返します。
// 判定は genai.APIError の構造化コードを優先し、メッセージ文字列は後方互換のための
// フォールバックとしてのみ使用します。
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED":
			return fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrInvalidCredential, apiErr.Message)
		}
	}

	// 文字列マッチによるフォールバック判定
	msg := err.Error()
	switch {
	case strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(msg, "429"):
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case strings.Contains(msg, phraseAPIKeyNotValid) || strings.Contains(msg, phraseEntityNotFound):
		return fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	return err
}

// IsRateLimited はリトライ可能なレート制限エラーかどうかを判定します。
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsInvalidCredential は API キー拒否または参照先リソース不明のエラーかどうかを判定します。
func IsInvalidCredential(err error) bool {
	return errors.Is(err, ErrInvalidCredential)
}
