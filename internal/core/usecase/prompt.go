package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dkarmanov/docuchat/internal/core/domain"
)

// buildAnswerPrompt assembles the grounded synthesis prompt from the top
// retrieved chunks and a short window of prior conversation. Chunk text goes
// in untruncated; the display preview applies only to the caller payload.
func buildAnswerPrompt(question string, results []domain.RetrievedChunk, history []domain.Message) string {
	var context strings.Builder
	for i, r := range results {
		content := strings.TrimSpace(strings.ReplaceAll(r.Text, "\n", " "))
		context.WriteString(fmt.Sprintf("[Source %d: %s, Page %s]: %s\n\n", i+1, r.SourceID, pageLabel(r.PageNumber), content))
	}

	var historyText strings.Builder
	if len(history) > 0 {
		historyText.WriteString("Previous conversation (for context only):\n")
		for _, msg := range history {
			historyText.WriteString(msg.Role)
			historyText.WriteString(": ")
			historyText.WriteString(msg.Text)
			historyText.WriteString("\n")
		}
		historyText.WriteString("\n")
	}

	return fmt.Sprintf(`# DOCUMENT-BASED QUESTION ANSWERING TASK

%s## CONTEXT FROM DOCUMENTS:
%s
## QUESTION TO ANSWER:
%s

## INSTRUCTIONS:
1. **USE ONLY THE PROVIDED CONTEXT ABOVE** - Do not use any external knowledge
2. **SYNTHESIZE INFORMATION** - Combine relevant information from multiple sources if applicable
3. **BE DETAILED AND WELL-STRUCTURED** - Provide a comprehensive answer with clear organization
4. **USE MARKDOWN FORMATTING** - Bold for key terms, bullet lists, headers (##, ###) for sections
5. **USE TABLES** - Present comparisons, features, or structured data as markdown tables
6. **CITE YOUR SOURCES** - For each key point, include a citation like [Source X]
7. **IF INFORMATION IS INSUFFICIENT** - If the context does not contain enough information to answer the question properly, respond with exactly: %q
8. **DO NOT INVENT INFORMATION** - Only use what is explicitly stated in the context
9. **DO NOT INCLUDE THINKING OR ANALYSIS** - Provide only the final answer

## SYNTHESIZED ANSWER (with markdown formatting):`,
		historyText.String(), context.String(), question, domain.SentinelAnswer)
}

func pageLabel(page *int) string {
	if page == nil {
		return "unknown"
	}
	return strconv.Itoa(*page)
}
