package usecase

import (
	"fmt"
	"strings"

	"github.com/dkarmanov/docuchat/internal/core/domain"
)

// reasoningMarkers match leaked reasoning preambles from the completion
// service. This is a deliberately small heuristic set, kept isolated here so
// it can grow without touching the rest of the pipeline.
var reasoningMarkers = []string{
	"thinking:",
	"analysis:",
	"## analysis",
	"first,",
	"let me",
	"i need to",
}

const citationMarker = "[Source"

// postProcessAnswer cleans a raw completion: strips reasoning lines, enforces
// at least one citation, and collapses empty output to the sentinel. top may
// be nil when there were no retrieval results to attribute.
func postProcessAnswer(raw string, top *domain.RetrievedChunk) string {
	answer := strings.TrimSpace(raw)

	var kept []string
	for _, line := range strings.Split(answer, "\n") {
		if isReasoningLine(line) {
			continue
		}
		kept = append(kept, line)
	}
	answer = strings.TrimSpace(strings.Join(kept, "\n"))

	if answer != "" && answer != domain.SentinelAnswer &&
		!strings.Contains(answer, citationMarker) && top != nil {
		answer = fmt.Sprintf("%s\n\n*Based on information from: %s, Page %s*", answer, top.SourceID, pageLabel(top.PageNumber))
	}

	if strings.TrimSpace(answer) == "" {
		return domain.SentinelAnswer
	}
	return answer
}

func isReasoningLine(line string) bool {
	lower := strings.ToLower(line)
	for _, marker := range reasoningMarkers {
		if strings.HasPrefix(lower, marker) {
			return true
		}
	}
	if idx := strings.Index(lower, "based on the context"); idx >= 0 && idx < 20 {
		return true
	}
	return false
}
