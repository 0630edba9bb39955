package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nobita6986/Img-Gen/internal/domain"

	"github.com/xuri/excelize/v2"
)

// ヘッダー行で受理する列名 (小文字比較)。STT が連番列、Prompt がプロンプト列。
var (
	sequenceHeaders = map[string]bool{"stt": true, "sequenceid": true, "sequence_id": true}
	promptHeaders   = map[string]bool{"prompt": true}
)

// Parse はスプレッドシート (xlsx または csv) からプロンプト一覧を読み取ります。
// 形式はファイル名の拡張子で判定します。STT または Prompt を欠く行は捨てられます。
// 同じファイルに対しては常に同じ順序で同じアイテム列を返します。
func Parse(r io.Reader, filename string) ([]domain.PromptItem, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return parseXLSX(r)
	case ".csv", ".txt":
		return parseCSV(r)
	default:
		return nil, fmt.Errorf("未対応のファイル形式です: %s (xlsx または csv を使用してください)", filename)
	}
}

// parseXLSX は最初のシートの行を読み取ります。
func parseXLSX(r io.Reader) ([]domain.PromptItem, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("xlsx ファイルを開けませんでした: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx ファイルにシートがありません")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("シート %q の読み取りに失敗しました: %w", sheets[0], err)
	}

	return itemsFromRows(rows)
}

// parseCSV は CSV の行を読み取ります。列数の揺らぎは許容します。
func parseCSV(r io.Reader) ([]domain.PromptItem, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // 行ごとの列数差を許容する

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CSV の読み取りに失敗しました: %w", err)
		}
		rows = append(rows, record)
	}

	return itemsFromRows(rows)
}

// itemsFromRows はヘッダー行から列位置を特定し、各行を PromptItem に変換します。
func itemsFromRows(rows [][]string) ([]domain.PromptItem, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("ファイルが空です")
	}

	seqCol, promptCol := -1, -1
	for i, h := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(h))
		switch {
		case sequenceHeaders[name] && seqCol < 0:
			seqCol = i
		case promptHeaders[name] && promptCol < 0:
			promptCol = i
		}
	}
	if seqCol < 0 || promptCol < 0 {
		return nil, fmt.Errorf("必須列が見つかりません (STT と Prompt のヘッダーが必要です)")
	}

	var items []domain.PromptItem
	for _, row := range rows[1:] {
		if seqCol >= len(row) || promptCol >= len(row) {
			continue
		}

		seqText := strings.TrimSpace(row[seqCol])
		prompt := strings.TrimSpace(row[promptCol])
		if seqText == "" || prompt == "" {
			continue
		}

		seq, err := strconv.Atoi(seqText)
		if err != nil {
			// 数値に変換できない STT を持つ行は意図的に無視します
			continue
		}

		items = append(items, domain.PromptItem{SequenceID: seq, Prompt: prompt})
	}

	return items, nil
}
