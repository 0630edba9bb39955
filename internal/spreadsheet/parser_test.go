package spreadsheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nobita6986/Img-Gen/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xuri/excelize/v2"
)

func TestParse_CSV(t *testing.T) {
	csvData := strings.Join([]string{
		"STT,Prompt",
		"1,a red cat",
		"2,a blue dog",
		",missing sequence id",
		"4,",
		"abc,not a number",
		"7,last one",
	}, "\n")

	items, err := Parse(strings.NewReader(csvData), "prompts.csv")
	require.NoError(t, err)

	want := []domain.PromptItem{
		{SequenceID: 1, Prompt: "a red cat"},
		{SequenceID: 2, Prompt: "a blue dog"},
		{SequenceID: 7, Prompt: "last one"},
	}
	assert.Equal(t, want, items, "必須列を欠く行は捨てられる")
}

func TestParse_CSVHeaderCaseInsensitive(t *testing.T) {
	csvData := "stt,PROMPT\n5,hello world\n"

	items, err := Parse(strings.NewReader(csvData), "prompts.csv")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].SequenceID)
	assert.Equal(t, "hello world", items[0].Prompt)
}

func TestParse_CSVAlternateSequenceHeader(t *testing.T) {
	csvData := "sequenceId,prompt\n3,three\n"

	items, err := Parse(strings.NewReader(csvData), "prompts.csv")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].SequenceID)
}

func TestParse_CSVMissingRequiredColumns(t *testing.T) {
	_, err := Parse(strings.NewReader("id,text\n1,hello\n"), "prompts.csv")
	assert.Error(t, err)
}

func TestParse_UnsupportedExtension(t *testing.T) {
	_, err := Parse(strings.NewReader("x"), "prompts.pdf")
	assert.Error(t, err)
}

func TestParse_XLSX(t *testing.T) {
	buf := buildXLSX(t, [][]any{
		{"STT", "Prompt"},
		{1, "a red cat"},
		{2, "a blue dog"},
		{nil, "dropped"},
	})

	items, err := Parse(bytes.NewReader(buf), "prompts.xlsx")
	require.NoError(t, err)

	want := []domain.PromptItem{
		{SequenceID: 1, Prompt: "a red cat"},
		{SequenceID: 2, Prompt: "a blue dog"},
	}
	assert.Equal(t, want, items)
}

// TestParse_Idempotent は、同じファイルを2回解析しても同じ順序の
// 同じアイテム列が得られることを検証します。
func TestParse_Idempotent(t *testing.T) {
	csvData := "STT,Prompt\n3,c\n1,a\n2,b\n"

	first, err := Parse(strings.NewReader(csvData), "prompts.csv")
	require.NoError(t, err)
	second, err := Parse(strings.NewReader(csvData), "prompts.csv")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	// キューの順序はファイルの行順であり、STT 順ではない
	assert.Equal(t, []int{3, 1, 2}, []int{first[0].SequenceID, first[1].SequenceID, first[2].SequenceID})
}

func buildXLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetList()[0]
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}
