package llm

// Usage contains token counts reported by the provider. Providers split
// usage across frames (prompt tokens at message start, completion tokens at
// message end), so Merge folds non-zero fields together.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`

	// Cache token counts (Anthropic prompt caching)
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`
}

// Merge folds non-zero fields of other into u and recomputes TotalTokens.
func (u *Usage) Merge(other *Usage) {
	if other == nil {
		return
	}
	if other.PromptTokens > 0 {
		u.PromptTokens = other.PromptTokens
	}
	if other.CompletionTokens > 0 {
		u.CompletionTokens = other.CompletionTokens
	}
	if other.CacheCreationInputTokens > 0 {
		u.CacheCreationInputTokens = other.CacheCreationInputTokens
	}
	if other.CacheReadInputTokens > 0 {
		u.CacheReadInputTokens = other.CacheReadInputTokens
	}
	if other.TotalTokens > 0 {
		u.TotalTokens = other.TotalTokens
	} else if u.PromptTokens > 0 || u.CompletionTokens > 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
}

// Empty reports whether no counts have been recorded.
func (u *Usage) Empty() bool {
	return u == nil || *u == Usage{}
}
