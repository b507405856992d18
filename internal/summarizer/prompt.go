package summarizer

import (
	"fmt"
	"strings"
)

type LengthTier string

const (
	LengthBrief    LengthTier = "brief"
	LengthStandard LengthTier = "standard"
	LengthDetailed LengthTier = "detailed"
)

const systemPrompt = "You are an expert legal analyst specializing in document summarization. " +
	"Provide clear, accurate, and professional legal document summaries."

var lengthInstructions = map[LengthTier]string{
	LengthBrief:    "a concise summary in 2-3 paragraphs",
	LengthStandard: "a comprehensive summary in 4-6 paragraphs",
	LengthDetailed: "an extensive summary in 6-10 paragraphs with detailed analysis",
}

// ParseLengthTier falls back to the standard tier for unknown input.
func ParseLengthTier(s string) LengthTier {
	tier := LengthTier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := lengthInstructions[tier]; ok {
		return tier
	}

	return LengthStandard
}

const userPromptTemplate = `You are an expert legal analyst. Please analyze the following legal document and provide %s.

%s

Your summary should include:
1. Document type and purpose
2. Key parties involved
3. Main legal obligations and rights
4. Important terms, conditions, and clauses
5. Critical dates, deadlines, and timeframes
6. Financial terms and monetary amounts (if applicable)
7. Risk factors and potential legal implications
8. Any notable legal standards or requirements

Format your response in clear, professional language suitable for legal professionals. Use bullet points or numbered lists where appropriate for clarity.

Document text:
%s

Summary:`

func BuildPrompt(text string, tier LengthTier, focusAreas string) Prompt {
	instruction, ok := lengthInstructions[tier]
	if !ok {
		instruction = lengthInstructions[LengthStandard]
	}

	focus := ""
	if focusAreas = strings.TrimSpace(focusAreas); focusAreas != "" {
		focus = fmt.Sprintf("Pay special attention to: %s. ", focusAreas)
	}

	return Prompt{
		System: systemPrompt,
		User:   fmt.Sprintf(userPromptTemplate, instruction, focus, text),
	}
}
