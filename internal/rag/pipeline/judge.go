package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dkurup/agenticrag/internal/config"
	"github.com/dkurup/agenticrag/internal/domain/ragModel"
)

var citationMarker = regexp.MustCompile(`\[chunk:(\d+)\]`)

// Verdict is the judge's decision on one draft. A rejection is a normal
// outcome that feeds the rewrite step, never an error.
type Verdict struct {
	Accepted bool
	Reason   string
}

// judgeDraft applies the grounding rules to a draft answer. It is
// deterministic and makes no external calls, so a given draft and hit
// set always produce the same verdict.
func judgeDraft(draft string, hits []ragModel.ChunkHit) Verdict {
	if len(hits) == 0 {
		return Verdict{Reason: "no retrieved context to ground the answer"}
	}
	trimmed := strings.TrimSpace(draft)
	if trimmed == "" {
		return Verdict{Reason: "draft answer is empty"}
	}
	if len(trimmed) < config.MinDraftAnswerLength {
		return Verdict{Reason: "draft answer is too short to be a real answer"}
	}
	markers := citationMarker.FindAllStringSubmatch(trimmed, -1)
	if len(markers) == 0 {
		return Verdict{Reason: "draft answer cites no retrieved chunks"}
	}
	known := make(map[int64]struct{}, len(hits))
	for _, hit := range hits {
		known[hit.ChunkId] = struct{}{}
	}
	for _, marker := range markers {
		id, err := strconv.ParseInt(marker[1], 10, 64)
		if err != nil {
			return Verdict{Reason: "draft answer contains an unparseable citation"}
		}
		if _, ok := known[id]; !ok {
			return Verdict{Reason: "draft answer cites a chunk that was not retrieved"}
		}
	}
	return Verdict{Accepted: true}
}

// citationsFor extracts structured citations for the chunks the draft
// actually references, in retained-hit order.
func citationsFor(draft string, hits []ragModel.ChunkHit) []ragModel.Citation {
	cited := make(map[int64]struct{})
	for _, marker := range citationMarker.FindAllStringSubmatch(draft, -1) {
		id, err := strconv.ParseInt(marker[1], 10, 64)
		if err != nil {
			continue
		}
		cited[id] = struct{}{}
	}
	citations := make([]ragModel.Citation, 0, len(cited))
	for _, hit := range hits {
		if _, ok := cited[hit.ChunkId]; !ok {
			continue
		}
		citations = append(citations, ragModel.Citation{
			ChunkId:    hit.ChunkId,
			Title:      hit.Title,
			ChunkIndex: hit.ChunkIndex,
			Score:      hit.Score,
		})
	}
	return citations
}
