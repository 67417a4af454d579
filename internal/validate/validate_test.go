// internal/validate/validate_test.go
package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/raylty/linkcheck-cli/internal/config"
	"github.com/raylty/linkcheck-cli/internal/report"
)

func geminiTextResponse(text string) string {
	payload := map[string]any{
		"candidates": []map[string]any{
			{
				"content":      map[string]any{"parts": []map[string]any{{"text": text}}},
				"finishReason": "STOP",
			},
		},
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*GeminiClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewGeminiClient(config.ValidatorConfig{
		Model:      "gemini-2.5-flash",
		APIKey:     "test-key",
		Endpoint:   server.URL,
		APITimeout: 5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return client, server
}

func TestGeminiClientRequiresAPIKey(t *testing.T) {
	_, err := NewGeminiClient(config.ValidatorConfig{Model: "gemini-2.5-flash"}, zap.NewNop())
	assert.Error(t, err)
}

func TestGeminiClientSendsInlineAttachments(t *testing.T) {
	var captured geminiRequestPayload
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		fmt.Fprint(w, geminiTextResponse(`{"blank_form_matches": true}`))
	})

	got, err := client.Generate(context.Background(), "请校验", []Attachment{
		{MIMEType: "application/pdf", Data: []byte("%PDF-1.4 fake")},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"blank_form_matches": true}`, got)

	require.Len(t, captured.Contents, 1)
	require.Len(t, captured.Contents[0].Parts, 2)
	assert.Equal(t, "请校验", captured.Contents[0].Parts[0].Text)
	require.NotNil(t, captured.Contents[0].Parts[1].InlineData)
	assert.Equal(t, "application/pdf", captured.Contents[0].Parts[1].InlineData.MIMEType)
	assert.Equal(t, "application/json", captured.GenerationConfig.ResponseMimeType)
}

func TestGeminiClientRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, geminiTextResponse("ok"))
	})

	got, err := client.Generate(context.Background(), "ping", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGeminiClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	_, err := client.Generate(context.Background(), "ping", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestBuildPairsGroupsByMaterial(t *testing.T) {
	m := &report.Manifest{Entries: []report.ManifestEntry{
		{Material: "体检合格证明", Element: "空白表格", FilePath: "a_blank.pdf"},
		{Material: "体检合格证明", Element: "示例样表", FilePath: "a_sample.pdf"},
		{Material: "授权委托书", Element: "空白表格", FilePath: "b_blank.pdf"},
	}}

	pairs := BuildPairs(m)
	require.Len(t, pairs, 2)
	assert.Equal(t, "a_blank.pdf", pairs[0].BlankPath)
	assert.Equal(t, "a_sample.pdf", pairs[0].SamplePath)
	assert.Equal(t, "b_blank.pdf", pairs[1].BlankPath)
	assert.Empty(t, pairs[1].SamplePath)
}

type fakeGenerator struct {
	response string
	err      error
	calls    atomic.Int32
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, _ []Attachment) (string, error) {
	f.calls.Add(1)
	return f.response, f.err
}

func writeFakePDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o644))
	return path
}

func TestValidatorRunPairVerdict(t *testing.T) {
	dir := t.TempDir()
	pair := Pair{
		Material:   "体检合格证明",
		BlankPath:  writeFakePDF(t, dir, "blank.pdf"),
		SamplePath: writeFakePDF(t, dir, "sample.pdf"),
	}

	gen := &fakeGenerator{response: "```json\n" + `{
		"forms_consistent": true, "forms_consistent_reason": "同一模板",
		"blank_form_matches": true, "sample_form_matches": true,
		"blank_form_empty": true, "sample_form_filled": true,
		"sample_info_masked": false, "sample_info_masked_reason": "姓名未打码"
	}` + "\n```"}

	v := NewValidator(gen, 2, zap.NewNop())
	results, err := v.Run(context.Background(), []Pair{pair})
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	require.NoError(t, res.Err)
	assert.False(t, res.Skipped)
	require.NotNil(t, res.Verdict.SampleInfoMasked)
	assert.False(t, *res.Verdict.SampleInfoMasked)
	assert.Equal(t, "姓名未打码", res.Verdict.SampleInfoMaskedWhy)
	assert.False(t, res.Verdict.Passed(), "one failed check fails the pair")
}

func TestValidatorSkipsUnsupportedFormats(t *testing.T) {
	dir := t.TempDir()
	docx := filepath.Join(dir, "blank.docx")
	require.NoError(t, os.WriteFile(docx, []byte("not a pdf"), 0o644))

	gen := &fakeGenerator{response: "{}"}
	v := NewValidator(gen, 1, zap.NewNop())
	results, err := v.Run(context.Background(), []Pair{{Material: "授权委托书", BlankPath: docx}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Skipped)
	assert.Equal(t, int32(0), gen.calls.Load(), "skipped pairs never reach the model")
}

func TestParseVerdict(t *testing.T) {
	fenced := "前言\n```json\n{\"blank_form_matches\": true}\n```\n后记"
	v, err := parseVerdict(fenced)
	require.NoError(t, err)
	require.NotNil(t, v.BlankFormMatches)
	assert.True(t, *v.BlankFormMatches)

	plain := `模型说: {"sample_form_filled": false} 以上`
	v, err = parseVerdict(plain)
	require.NoError(t, err)
	require.NotNil(t, v.SampleFormFilled)
	assert.False(t, *v.SampleFormFilled)

	_, err = parseVerdict("完全没有JSON")
	assert.Error(t, err)
}

func TestVerdictPassed(t *testing.T) {
	yes, no := true, false
	assert.True(t, Verdict{BlankFormMatches: &yes, BlankFormEmpty: &yes}.Passed())
	assert.False(t, Verdict{BlankFormMatches: &yes, BlankFormEmpty: &no}.Passed())
	assert.False(t, Verdict{}.Passed(), "a verdict with no judged checks cannot pass")
}
