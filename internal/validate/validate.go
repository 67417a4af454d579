// internal/validate/validate.go

// Package validate checks downloaded documents against their material
// names using a multimodal model: form pairs must be consistent, blank
// forms must be empty, and sample forms must carry masked examples.
package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/raylty/linkcheck-cli/internal/report"
)

// Verdict holds the six checks. Pointers distinguish "judged false"
// from "not applicable to this pair".
type Verdict struct {
	FormsConsistent       *bool  `json:"forms_consistent,omitempty"`
	FormsConsistentReason string `json:"forms_consistent_reason,omitempty"`
	BlankFormMatches      *bool  `json:"blank_form_matches,omitempty"`
	BlankFormMatchesWhy   string `json:"blank_form_matches_reason,omitempty"`
	SampleFormMatches     *bool  `json:"sample_form_matches,omitempty"`
	SampleFormMatchesWhy  string `json:"sample_form_matches_reason,omitempty"`
	BlankFormEmpty        *bool  `json:"blank_form_empty,omitempty"`
	BlankFormEmptyWhy     string `json:"blank_form_empty_reason,omitempty"`
	SampleFormFilled      *bool  `json:"sample_form_filled,omitempty"`
	SampleFormFilledWhy   string `json:"sample_form_filled_reason,omitempty"`
	SampleInfoMasked      *bool  `json:"sample_info_masked,omitempty"`
	SampleInfoMaskedWhy   string `json:"sample_info_masked_reason,omitempty"`
}

// Passed reports whether every applicable check came back true.
func (v Verdict) Passed() bool {
	checks := []*bool{
		v.FormsConsistent, v.BlankFormMatches, v.SampleFormMatches,
		v.BlankFormEmpty, v.SampleFormFilled, v.SampleInfoMasked,
	}
	any := false
	for _, c := range checks {
		if c == nil {
			continue
		}
		any = true
		if !*c {
			return false
		}
	}
	return any
}

// Pair groups the blank form and sample form downloaded for one material.
// Either side may be missing.
type Pair struct {
	Material   string
	BlankPath  string
	SamplePath string
}

// PairResult is the outcome of validating one pair.
type PairResult struct {
	Pair    Pair
	Verdict Verdict
	Skipped bool
	Reason  string
	Err     error
}

// Generator abstracts the model call so tests can fake it.
type Generator interface {
	Generate(ctx context.Context, prompt string, attachments []Attachment) (string, error)
}

// Validator runs pair validations with bounded concurrency.
type Validator struct {
	client      Generator
	logger      *zap.Logger
	concurrency int
}

func NewValidator(client Generator, concurrency int, logger *zap.Logger) *Validator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Validator{client: client, logger: logger, concurrency: concurrency}
}

// BuildPairs groups manifest entries by material name. An element name
// containing 空白 selects the blank slot, 示例 or 样表 the sample slot.
func BuildPairs(m *report.Manifest) []Pair {
	byMaterial := make(map[string]*Pair)
	order := make([]string, 0)
	for _, e := range m.Entries {
		p, ok := byMaterial[e.Material]
		if !ok {
			p = &Pair{Material: e.Material}
			byMaterial[e.Material] = p
			order = append(order, e.Material)
		}
		switch {
		case strings.Contains(e.Element, "空白"):
			p.BlankPath = e.FilePath
		case strings.Contains(e.Element, "示例"), strings.Contains(e.Element, "样表"):
			p.SamplePath = e.FilePath
		default:
			// Unrecognized element names fill whichever slot is free.
			if p.BlankPath == "" {
				p.BlankPath = e.FilePath
			} else if p.SamplePath == "" {
				p.SamplePath = e.FilePath
			}
		}
	}
	sort.Strings(order)
	pairs := make([]Pair, 0, len(order))
	for _, mat := range order {
		pairs = append(pairs, *byMaterial[mat])
	}
	return pairs
}

// Run validates every pair and returns the results in pair order.
func (v *Validator) Run(ctx context.Context, pairs []Pair) ([]PairResult, error) {
	results := make([]PairResult, len(pairs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)
	for i, p := range pairs {
		g.Go(func() error {
			results[i] = v.validatePair(ctx, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (v *Validator) validatePair(ctx context.Context, p Pair) PairResult {
	res := PairResult{Pair: p}

	blank, blankErr := loadAttachment(p.BlankPath)
	sample, sampleErr := loadAttachment(p.SamplePath)
	if blankErr != nil {
		v.logger.Warn("Skipping blank form", zap.String("material", p.Material), zap.Error(blankErr))
		blank = nil
	}
	if sampleErr != nil {
		v.logger.Warn("Skipping sample form", zap.String("material", p.Material), zap.Error(sampleErr))
		sample = nil
	}

	var (
		prompt      string
		attachments []Attachment
	)
	switch {
	case blank != nil && sample != nil:
		prompt = pairPrompt(p.Material)
		attachments = []Attachment{*blank, *sample}
	case blank != nil:
		prompt = blankPrompt(p.Material)
		attachments = []Attachment{*blank}
	case sample != nil:
		prompt = samplePrompt(p.Material)
		attachments = []Attachment{*sample}
	default:
		res.Skipped = true
		res.Reason = "没有可校验的文档（文件缺失或格式不受支持）"
		return res
	}

	content, err := v.client.Generate(ctx, prompt, attachments)
	if err != nil {
		res.Err = fmt.Errorf("validation request for %q failed: %w", p.Material, err)
		return res
	}

	verdict, err := parseVerdict(content)
	if err != nil {
		res.Err = fmt.Errorf("could not parse verdict for %q: %w", p.Material, err)
		return res
	}
	res.Verdict = verdict
	return res
}

// mimeTypes are the formats Gemini accepts inline. Word documents need a
// conversion step we do not carry; they are skipped with a reason.
var mimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

func loadAttachment(path string) (*Attachment, error) {
	if path == "" {
		return nil, fmt.Errorf("no file recorded")
	}
	mime, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("unsupported file format %q", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &Attachment{MIMEType: mime, Data: data}, nil
}

// parseVerdict tolerates fenced or prose-wrapped JSON.
func parseVerdict(content string) (Verdict, error) {
	var v Verdict
	raw := extractJSON(content)
	if raw == "" {
		return v, fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, err
	}
	return v, nil
}

func extractJSON(content string) string {
	if i := strings.Index(content, "```json"); i >= 0 {
		rest := content[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return ""
}
