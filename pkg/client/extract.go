package client

import (
	"strings"

	"github.com/diogo/pplx-search-go/pkg/models"
)

// Block keys consulted during extraction. Markdown blocks are matched by
// substring because the upstream has shipped several variants
// ("markdown_block", "answer_markdown", ...); the others are exact.
const (
	markdownKeyFragment = "markdown"
	askTextKey          = "ask_text"
	webResultsKey       = "web_results"
)

// ExtractResult derives the final answer text and deduplicated source list
// from a fully accumulated snapshot. The answer is chosen by fixed priority:
// markdown blocks, then the ask_text block, then the top-level text field.
// An all-empty snapshot yields the empty string; the orchestrator decides
// what to do with that.
func ExtractResult(ev *models.StreamEvent) (string, []models.Source) {
	if ev == nil {
		return "", nil
	}
	return extractAnswer(ev), extractSources(ev)
}

func extractAnswer(ev *models.StreamEvent) string {
	if a := answerFromBlocks(ev.Blocks, func(key string) bool {
		return strings.Contains(key, markdownKeyFragment)
	}); a != "" {
		return a
	}

	if a := answerFromBlocks(ev.Blocks, func(key string) bool {
		return key == askTextKey
	}); a != "" {
		return a
	}

	if ev.Text != nil {
		return strings.TrimSpace(*ev.Text)
	}
	return ""
}

// answerFromBlocks scans blocks in order and returns the first non-empty
// answer among those whose key matches: the materialized answer when set,
// else the concatenated chunks.
func answerFromBlocks(blocks []models.Block, match func(string) bool) string {
	for _, b := range blocks {
		if !match(b.IntendedUsage) || b.MarkdownBlock == nil {
			continue
		}
		if b.MarkdownBlock.Answer != nil {
			if a := strings.TrimSpace(*b.MarkdownBlock.Answer); a != "" {
				return a
			}
		}
		if joined := strings.TrimSpace(strings.Join(b.MarkdownBlock.Chunks, "")); joined != "" {
			return joined
		}
	}
	return ""
}

func extractSources(ev *models.StreamEvent) []models.Source {
	for _, b := range ev.Blocks {
		if b.IntendedUsage != webResultsKey {
			continue
		}
		if b.WebResultBlock != nil && len(b.WebResultBlock.WebResults) > 0 {
			sources := make([]models.Source, 0, len(b.WebResultBlock.WebResults))
			for _, w := range b.WebResultBlock.WebResults {
				sources = append(sources, w.Source())
			}
			return dedupSources(sources)
		}
		break
	}

	if len(ev.WebResults) > 0 {
		sources := make([]models.Source, 0, len(ev.WebResults))
		for _, l := range ev.WebResults {
			sources = append(sources, l.Source())
		}
		return dedupSources(sources)
	}

	return nil
}

// dedupSources keeps the first occurrence of each normalized URL, preserving
// order. Sources without a URL are never deduplicated.
func dedupSources(sources []models.Source) []models.Source {
	seen := make(map[string]bool, len(sources))
	out := make([]models.Source, 0, len(sources))
	for _, s := range sources {
		if s.URL == "" {
			out = append(out, s)
			continue
		}
		key := normalizeURLKey(s.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

// normalizeURLKey computes the dedup key: trimmed, one trailing slash
// stripped, lower-cased.
func normalizeURLKey(u string) string {
	key := strings.TrimSpace(u)
	key = strings.TrimSuffix(key, "/")
	return strings.ToLower(key)
}
