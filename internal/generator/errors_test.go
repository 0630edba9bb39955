package generator

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"google.golang.org/genai"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name              string
		err               error
		rateLimited       bool
		invalidCredential bool
	}{
		{
			name:        "APIError 429",
			err:         genai.APIError{Code: 429, Message: "quota exceeded"},
			rateLimited: true,
		},
		{
			name:        "APIError RESOURCE_EXHAUSTED",
			err:         genai.APIError{Code: 500, Status: "RESOURCE_EXHAUSTED", Message: "slow down"},
			rateLimited: true,
		},
		{
			name:              "APIError 401",
			err:               genai.APIError{Code: 401, Message: "unauthorized"},
			invalidCredential: true,
		},
		{
			name:              "APIError 403",
			err:               genai.APIError{Code: 403, Message: "forbidden"},
			invalidCredential: true,
		},
		{
			name:              "メッセージによるAPIキー拒否の検出",
			err:               errors.New("API key not valid. Please pass a valid API key."),
			invalidCredential: true,
		},
		{
			name:              "メッセージによるリソース不明の検出",
			err:               errors.New("Requested entity was not found."),
			invalidCredential: true,
		},
		{
			name:        "メッセージによるレート制限の検出",
			err:         errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED"),
			rateLimited: true,
		},
		{
			name: "未分類エラーはそのまま",
			err:  errors.New("connection reset by peer"),
		},
		{
			name: "ラップ済みAPIErrorも分類される",
			err:  fmt.Errorf("generate failed: %w", genai.APIError{Code: 429, Message: "quota"}),

			rateLimited: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := ClassifyError(tt.err)
			require.Error(t, classified)
			assert.Equal(t, tt.rateLimited, IsRateLimited(classified))
			assert.Equal(t, tt.invalidCredential, IsInvalidCredential(classified))
		})
	}
}

func TestClassifyError_NilPassesThrough(t *testing.T) {
	assert.NoError(t, ClassifyError(nil))
}

func TestClassifyError_PreservesOriginalMessage(t *testing.T) {
	classified := ClassifyError(errors.New("API key not valid. Please pass a valid API key."))
	assert.Contains(t, classified.Error(), "API key not valid")
}
