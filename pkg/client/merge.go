package client

import (
	"strings"

	"github.com/diogo/pplx-search-go/pkg/models"
)

// MergeEvents folds one incoming event into the accumulated snapshot and
// returns the new snapshot. Each event is a bigger partial picture of the
// final answer, not a delta, so the fold is stateful: scalars present on the
// incoming event override, absent scalars leave the accumulated value alone,
// blocks reconcile by intended-usage key, and the legacy source list only
// ever grows. Neither input is mutated.
func MergeEvents(acc, in *models.StreamEvent) *models.StreamEvent {
	out := &models.StreamEvent{}
	if acc != nil {
		*out = *acc
	}
	if in == nil {
		return out
	}

	if in.Status != nil {
		out.Status = in.Status
	}
	if in.Final != nil {
		out.Final = in.Final
	}
	if in.Text != nil {
		out.Text = in.Text
	}
	if in.DisplayModel != nil {
		out.DisplayModel = in.DisplayModel
	}
	if in.BackendUUID != nil {
		out.BackendUUID = in.BackendUUID
	}
	if in.ErrorCode != nil {
		out.ErrorCode = in.ErrorCode
	}
	if in.ErrorMessage != nil {
		out.ErrorMessage = in.ErrorMessage
	}

	out.Blocks = mergeBlocks(out.Blocks, in.Blocks)

	if len(in.WebResults) > 0 {
		merged := make([]models.LegacyResult, 0, len(out.WebResults)+len(in.WebResults))
		merged = append(merged, out.WebResults...)
		merged = append(merged, in.WebResults...)
		out.WebResults = merged
	}

	return out
}

// mergeBlocks reconciles incoming blocks into the existing list by
// intended-usage key. Existing blocks keep their position, new keys append
// in first-seen order, and unkeyed blocks always append.
func mergeBlocks(existing, incoming []models.Block) []models.Block {
	if len(incoming) == 0 {
		return existing
	}

	out := make([]models.Block, len(existing), len(existing)+len(incoming))
	copy(out, existing)

	index := make(map[string]int, len(out))
	for i, b := range out {
		if b.IntendedUsage == "" {
			continue
		}
		if _, ok := index[b.IntendedUsage]; !ok {
			index[b.IntendedUsage] = i
		}
	}

	for _, nb := range incoming {
		if nb.IntendedUsage == "" {
			out = append(out, nb)
			continue
		}
		if i, ok := index[nb.IntendedUsage]; ok {
			out[i] = mergeBlock(out[i], nb)
		} else {
			index[nb.IntendedUsage] = len(out)
			out = append(out, nb)
		}
	}

	return out
}

// mergeBlock merges an incoming block into the accumulated block that shares
// its key.
func mergeBlock(acc, in models.Block) models.Block {
	out := acc
	if in.IntendedUsage != "" {
		out.IntendedUsage = in.IntendedUsage
	}
	if acc.MarkdownBlock != nil || in.MarkdownBlock != nil {
		out.MarkdownBlock = mergeMarkdown(acc.MarkdownBlock, in.MarkdownBlock)
	}
	if in.WebResultBlock != nil && len(in.WebResultBlock.WebResults) > 0 {
		out.WebResultBlock = in.WebResultBlock
	}
	return out
}

// mergeMarkdown applies the chunk-splice rule. An absent incoming offset or
// an offset <= 0 replaces the whole chunk list; a positive offset N keeps
// existing[:N] and appends the incoming chunks from there. The materialized
// answer prefers the incoming value, then the concatenated result chunks,
// then whatever was accumulated.
func mergeMarkdown(acc, in *models.MarkdownBlock) *models.MarkdownBlock {
	if in == nil {
		return acc
	}

	var existing []string
	var carried *string
	var carriedOffset *int
	if acc != nil {
		existing = acc.Chunks
		carried = acc.Answer
		carriedOffset = acc.ChunkStartingOffset
	}

	chunks := existing
	if in.Chunks != nil {
		offset := 0
		if in.ChunkStartingOffset != nil {
			offset = *in.ChunkStartingOffset
		}
		if offset <= 0 {
			chunks = in.Chunks
		} else {
			if offset > len(existing) {
				offset = len(existing)
			}
			spliced := make([]string, 0, offset+len(in.Chunks))
			spliced = append(spliced, existing[:offset]...)
			spliced = append(spliced, in.Chunks...)
			chunks = spliced
		}
	}

	out := &models.MarkdownBlock{Chunks: chunks, ChunkStartingOffset: carriedOffset}
	if in.ChunkStartingOffset != nil {
		out.ChunkStartingOffset = in.ChunkStartingOffset
	}

	switch {
	case in.Answer != nil:
		out.Answer = in.Answer
	case len(chunks) > 0:
		joined := strings.Join(chunks, "")
		out.Answer = &joined
	default:
		out.Answer = carried
	}

	return out
}
