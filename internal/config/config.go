package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	DefaultImageModel = "gemini-2.5-flash-image"
	// DefaultHTTPTimeout 画像生成 API の応答を考慮したタイムアウト
	DefaultHTTPTimeout = 60 * time.Second
	// DefaultConcurrency 1チャンクあたりの同時生成リクエスト数
	DefaultConcurrency = 3
	DefaultAspectRatio = "1:1"

	// リトライポリシー (レート制限時のみ適用)
	DefaultMaxAttempts  = 4
	DefaultRetryDelay   = 2 * time.Second
	DefaultRetryFactor  = 2.0
	DefaultMaxUploadMiB = 20

	credentialFileName = "img-gen/credential"
)

// Config は環境変数から読み込まれたアプリケーションの全設定を保持します。
type Config struct {
	ServiceURL string
	Port       string

	// ImageModel は画像生成に使用する Gemini モデル名です。
	ImageModel string
	// GeminiAPIKey は起動時の初期クレデンシャルです。空の場合は未認証状態から始まり、
	// ユーザーが API 経由でキーを登録するまで生成は行えません。
	GeminiAPIKey string

	Concurrency     int
	AspectRatio     string
	MaxUploadBytes  int64
	CredentialFile  string
	SlackWebhookURL string
	ShutdownTimeout time.Duration
}

// LoadConfig は環境変数から設定を読み込み、Config 構造体を生成します。
func LoadConfig() *Config {
	return &Config{
		ServiceURL:      getEnv("SERVICE_URL", "http://localhost:8080"),
		Port:            getEnv("PORT", "8080"),
		ImageModel:      getEnv("IMAGE_MODEL", DefaultImageModel),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		Concurrency:     getEnvInt("BATCH_CONCURRENCY", DefaultConcurrency),
		AspectRatio:     getEnv("ASPECT_RATIO", DefaultAspectRatio),
		MaxUploadBytes:  int64(getEnvInt("MAX_UPLOAD_MIB", DefaultMaxUploadMiB)) << 20,
		CredentialFile:  getEnv("CREDENTIAL_FILE", defaultCredentialPath()),
		SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
		ShutdownTimeout: 15 * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// defaultCredentialPath はユーザー設定ディレクトリ配下の固定パスを返します。
// ブラウザ版の localStorage に相当する、単一キーの永続先です。
func defaultCredentialPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", credentialFileName)
	}
	return filepath.Join(dir, credentialFileName)
}
