package confessions

import (
	"fmt"
	"strings"
)

const analysisPromptTemplate = `You are a legal triage assistant for an anonymous Indian legal help forum.
A user has described a legal problem. Give a preliminary, non-binding analysis.

Category: %s
Title: %s
Problem:
%s

Respond in plain text with exactly these four sections, in this order:
1. Legal posture: where the user stands, in two or three sentences.
2. Applicable statutes: the laws or sections most likely to apply.
3. Immediate steps: up to five concrete actions, most urgent first.
4. Risk level: Low, Medium or High, with one sentence of reasoning.

Keep the whole answer under 300 words. Do not ask for or repeat personal
details. End with: "This is not legal advice; consult a lawyer."`

// BuildPrompt renders the fixed analysis prompt for a confession.
func BuildPrompt(c *Confession) string {
	return fmt.Sprintf(analysisPromptTemplate,
		c.Category,
		strings.TrimSpace(c.Title),
		strings.TrimSpace(c.Body),
	)
}
