package analysis

import (
	"fmt"
	"strings"
)

// noWeaknessesSentinel is the exact token the model is told to emit when the
// page content reveals nothing worth reporting. The parser treats a response
// consisting of this sentinel as a successful analysis with zero findings.
const noWeaknessesSentinel = "NO WEAKNESSES FOUND"

// Marker grammar shared between the prompt and the parser. Each weakness
// entry opens with "WEAKNESS <n>:" and carries one field per line. The
// parser tolerates markdown decoration and case drift around these markers,
// so the template keeps them plain.
const (
	markerEntry       = "WEAKNESS"
	markerTitle       = "TITLE"
	markerDescription = "DESCRIPTION"
	markerSeverity    = "SEVERITY"
	markerCategory    = "CATEGORY"
)

const analysisPromptTemplate = `You are a competitive intelligence analyst. Analyze the following web page
content from %s and identify concrete business weaknesses a competitor could
exploit.

PAGE CONTENT:
---
%s
---

Identify 8-12 distinct weaknesses. Base every finding on the page content
above; do not invent facts. Output each weakness in exactly this format,
with no other commentary:

WEAKNESS 1:
TITLE: <short weakness name>
DESCRIPTION: <2-3 sentences explaining the weakness and its business impact>
SEVERITY: <high, medium, or low>
CATEGORY: <one of: Pricing, Product, Support, UX, Performance, Security, Integrations, Documentation, General>

WEAKNESS 2:
TITLE: ...

If the content reveals no genuine weaknesses, output exactly:
%s`

// BuildPrompt renders the analysis prompt for one competitor. It is a pure
// function of its inputs: the same name and content always produce the same
// prompt, so a generation result is attributable to exactly one input pair.
func BuildPrompt(competitorName, content string) string {
	return fmt.Sprintf(analysisPromptTemplate,
		strings.TrimSpace(competitorName),
		content,
		noWeaknessesSentinel,
	)
}
