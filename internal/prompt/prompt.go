// Package prompt renders the fixed evaluation prompt sent to the model.
// The instructional wording is a compile-time asset; only the trailing
// proposal text varies per call.
package prompt

import "strings"

// EvaluatorSystemPrompt carries the analyst persona. It is installed as the
// model's system instruction by the Vertex client, not concatenated into the
// per-request prompt.
const EvaluatorSystemPrompt = "You are an experienced venture-capital analyst. You produce structured, objective analyses of startup project proposals to aid human investors. You never make funding decisions yourself."

// criteriaHeader enumerates the FNR JUMP Programme review criteria and the
// behavioral constraints for the analysis. It must never be derived from or
// mutated by input.
const criteriaHeader = `Based on the FNR JUMP Programme review guidelines, evaluate the following project proposal. Assess it against these criteria:
1. Novelty - is the technology or concept novel/disruptive, and is there enough evidence to show scientific robustness?
2. Market/customer understanding and commercialisation strengths (for commercial projects) - how well does the team understand the market and target customers, and what are the plans for bringing the product to market?
3. Social needs and methodology (for social impact projects) - has the proposal identified a clear societal need and provided a suitable methodology for addressing it?
4. Impact magnitude - what is the expected scale of impact?
5. Intellectual property and validation - what is the status of IP and technical validation?
6. Team competences and expertise - assess the team's experience and the fit of any entrepreneur in residence (EiR) if applicable.

Provide a structured analysis highlighting strengths, weaknesses, risks and opportunities for each criterion. Offer recommendations for improvement but do NOT make a final funding decision. Do NOT use sensitive personal attributes (e.g. race, gender, health) in your reasoning. Instead focus on objective, project-related factors. At the end, summarise the overall investment outlook.`

// proposalSeparator sits between the fixed header and the proposal text.
const proposalSeparator = "\n\nHere is the proposal:\n\n"

// Build returns the complete prompt for one evaluation: the constant
// instructional header, the separator, and the trimmed proposal text. It is
// pure and total; an empty input still yields a syntactically valid prompt.
// Rejecting empty extractions is the caller's job, before this point.
func Build(text string) string {
	return criteriaHeader + proposalSeparator + strings.TrimSpace(text)
}
