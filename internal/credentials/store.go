package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store は API キーを単一ファイルに永続化します。
// ブラウザ版の localStorage の固定キーに相当する、サーバー側の置き場所です。
// ファイルが存在しないことは「未認証状態」を意味します。
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load は保存済みのキーを返します。未保存の場合は空文字列を返します（エラーではありません）。
func (s *Store) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("クレデンシャルファイルの読み込みに失敗しました: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save はキーを保存します。一時ファイルへ書いてから rename する原子的な更新です。
func (s *Store) Save(apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("API キーが空です")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("クレデンシャルディレクトリの作成に失敗しました: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credential-*")
	if err != nil {
		return fmt.Errorf("一時ファイルの作成に失敗しました: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(apiKey); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("クレデンシャルの書き込みに失敗しました: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("クレデンシャルの権限設定に失敗しました: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("一時ファイルのクローズに失敗しました: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("クレデンシャルの保存に失敗しました: %w", err)
	}
	return nil
}

// Clear は保存済みのキーを削除します。元々存在しない場合もエラーにしません。
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("クレデンシャルの削除に失敗しました: %w", err)
	}
	return nil
}
