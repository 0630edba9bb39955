package domain

// PromptItem は、スプレッドシートの1行に対応する生成指示を表します。
type PromptItem struct {
	// SequenceID はユーザーが付与した連番（STT）です。一意ですが連続である保証はありません。
	SequenceID int `json:"stt"`
	// Prompt は画像生成に使用するプロンプト本文です。
	Prompt string `json:"prompt"`
}

// GenerationResult は、1件の画像生成が成功したときに作られる成果物です。
// 作成後は不変であり、ユーザーの明示的な削除操作でのみ取り除かれます。
type GenerationResult struct {
	SequenceID int    `json:"stt"`
	Prompt     string `json:"prompt"`
	// ImageData は生成画像の Base64 文字列です。
	ImageData string `json:"image_data"`
	MimeType  string `json:"mime_type"`
}

// ReferenceImage は、任意でアップロードされる参照画像です。
// バッチ内の全プロンプトに対して共通で使用されます。
type ReferenceImage struct {
	Data     []byte
	MimeType string
	Filename string
}
