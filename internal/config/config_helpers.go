package config

import (
	"fmt"

	"github.com/shouni/netarmor/securenet"
)

// --- バリデーション ---

// ValidateEssentialConfig はアプリケーション実行に不可欠な設定を検証します。
// GeminiAPIKey は必須ではありません。未設定の場合はユーザーが実行時に登録します。
func ValidateEssentialConfig(cfg *Config) error {
	if !IsSecureURL(cfg.ServiceURL) {
		return fmt.Errorf("security error: SERVICE_URL ('%s') must be HTTPS in production", cfg.ServiceURL)
	}

	if cfg.Concurrency < 1 {
		return fmt.Errorf("configuration error: BATCH_CONCURRENCY must be >= 1 (got %d)", cfg.Concurrency)
	}

	if cfg.MaxUploadBytes <= 0 {
		return fmt.Errorf("configuration error: MAX_UPLOAD_MIB must be positive")
	}

	return nil
}

// IsSecureURL は指定された URL が HTTPS または localhost であるか判定します。
func IsSecureURL(rawURL string) bool {
	return securenet.IsSecureServiceURL(rawURL)
}
