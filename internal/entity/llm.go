package entity

// LLMGenerateRequest is one (system prompt, user prompt) exchange with a hosted model.
type LLMGenerateRequest struct {
	ModelID      string `json:"model_id"`
	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`
	MaxTokens    int    `json:"max_tokens"`
}

// LlamaInvokeBody is the Bedrock request body for Meta Llama models.
type LlamaInvokeBody struct {
	Prompt      string  `json:"prompt"`
	MaxGenLen   int     `json:"max_gen_len"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

// LlamaInvokeResponse is the Bedrock response body (and stream chunk) for Meta Llama models.
type LlamaInvokeResponse struct {
	Generation           string `json:"generation"`
	PromptTokenCount     int    `json:"prompt_token_count"`
	GenerationTokenCount int    `json:"generation_token_count"`
	StopReason           string `json:"stop_reason"`
}

// StreamChunk is one piece of a streamed generation. Err is set on the last
// chunk when the stream broke.
type StreamChunk struct {
	Text string
	Err  error
}

// TitanEmbeddingBody is the Bedrock request body for Titan text embeddings v2.
type TitanEmbeddingBody struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions"`
	Normalize  bool   `json:"normalize"`
}

// TitanEmbeddingResponse is the Bedrock response body for Titan text embeddings.
type TitanEmbeddingResponse struct {
	Embedding           []float64 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}
