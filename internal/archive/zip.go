package archive

import (
	"archive/zip"
	"encoding/base64"
	"fmt"
	"io"
	"regexp"

	"github.com/nobita6986/Img-Gen/internal/domain"
)

const maxSlugLength = 50

// ファイル名として安全でない文字。英数字と _ . - 以外はすべて _ に置換します。
var unsafeSlugChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// SanitizeSlug はプロンプトをファイル名に使える形へ変換します。
// 安全でない文字を _ に置換した後、50文字に切り詰めます。
func SanitizeSlug(prompt string) string {
	slug := unsafeSlugChars.ReplaceAllString(prompt, "_")
	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
	}
	return slug
}

// EntryName はアーカイブ内のエントリ名 "{STT}_{スラグ}.jpg" を返します。
func EntryName(res domain.GenerationResult) string {
	return fmt.Sprintf("%d_%s.jpg", res.SequenceID, SanitizeSlug(res.Prompt))
}

// Write は選択された結果を1つの zip にまとめて w へ書き出します。
// 結果 N 件に対してエントリはちょうど N 件です。
func Write(w io.Writer, results []domain.GenerationResult) error {
	zw := zip.NewWriter(w)

	for _, res := range results {
		data, err := base64.StdEncoding.DecodeString(res.ImageData)
		if err != nil {
			zw.Close()
			return fmt.Errorf("STT %d の画像データのデコードに失敗しました: %w", res.SequenceID, err)
		}

		entry, err := zw.Create(EntryName(res))
		if err != nil {
			zw.Close()
			return fmt.Errorf("エントリの作成に失敗しました: %w", err)
		}
		if _, err := entry.Write(data); err != nil {
			zw.Close()
			return fmt.Errorf("STT %d の書き込みに失敗しました: %w", res.SequenceID, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("zip のクローズに失敗しました: %w", err)
	}
	return nil
}
