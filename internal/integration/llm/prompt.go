package llm

import "strings"

const defaultMaxTokens = 2048

// FormatLlama3 wraps a system and a user prompt in the Llama 3 instruct chat template.
func FormatLlama3(systemPrompt, userPrompt string) string {
	var b strings.Builder
	b.WriteString("<|begin_of_text|><|start_header_id|>system<|end_header_id|>\n\n")
	b.WriteString(systemPrompt)
	b.WriteString("<|eot_id|><|start_header_id|>user<|end_header_id|>\n\n")
	b.WriteString(userPrompt)
	b.WriteString("<|eot_id|><|start_header_id|>assistant<|end_header_id|>\n\n")
	return b.String()
}

// maxTokens picks the per-request limit, then the configured one, then the default.
func maxTokens(requested, configured int) int {
	switch {
	case requested > 0:
		return requested
	case configured > 0:
		return configured
	default:
		return defaultMaxTokens
	}
}
