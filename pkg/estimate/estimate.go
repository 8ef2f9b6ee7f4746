package estimate

import (
	"log/slog"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// fallbackCharsPerToken approximates English text when no BPE encoding
// is available.
const fallbackCharsPerToken = 4

// defaultCompletionTokens is assumed for requests that do not cap their
// output.
const defaultCompletionTokens = 1024

var (
	// Cache encodings to avoid repeated initialization
	encodingCache = make(map[string]*tiktoken.Tiktoken)
	cacheMu       sync.RWMutex
)

// Estimator counts tokens for quota accounting.
//
// It uses the model's BPE encoding when one can be loaded and falls back
// to a character-ratio approximation otherwise, so estimation always
// produces a usable number even offline.
type Estimator struct {
	model    string
	encoding *tiktoken.Tiktoken
}

// Estimate contains token estimation results for a prospective request.
type Estimate struct {
	// PromptTokens is the estimated number of tokens in the prompt.
	PromptTokens int64

	// CompletionTokens is the assumed completion allowance, taken from
	// the request's output cap or a default.
	CompletionTokens int64

	// TotalTokens is PromptTokens + CompletionTokens. This is the value
	// to charge against token ceilings.
	TotalTokens int64

	// Exact is true when a BPE encoding produced the prompt count.
	Exact bool
}

// NewEstimator creates an estimator for the given model.
//
// Encoding lookup failures are not fatal: the estimator degrades to the
// character-ratio approximation and logs once at construction.
func NewEstimator(model string) *Estimator {
	cacheMu.RLock()
	cached, ok := encodingCache[model]
	cacheMu.RUnlock()

	if ok {
		return &Estimator{model: model, encoding: cached}
	}

	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Fallback to cl100k_base before giving up on BPE entirely.
		encoding, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		slog.Warn("no token encoding available, using character approximation",
			"model", model,
			"error", err,
		)
		return &Estimator{model: model}
	}

	cacheMu.Lock()
	encodingCache[model] = encoding
	cacheMu.Unlock()

	return &Estimator{model: model, encoding: encoding}
}

// Model returns the model this estimator was built for.
func (e *Estimator) Model() string { return e.model }

// Exact reports whether a BPE encoding is in use.
func (e *Estimator) Exact() bool { return e.encoding != nil }

// Count returns the token count for a single text string.
func (e *Estimator) Count(text string) int64 {
	if text == "" {
		return 0
	}
	if e.encoding != nil {
		return int64(len(e.encoding.Encode(text, nil, nil)))
	}
	count := int64(len(text) / fallbackCharsPerToken)
	if count == 0 {
		count = 1
	}
	return count
}

// ForRequest estimates the total token cost of a prompt plus its
// completion allowance. maxOutput of zero assumes the default allowance.
func (e *Estimator) ForRequest(prompt string, maxOutput int64) Estimate {
	promptTokens := e.Count(prompt)

	completion := maxOutput
	if completion <= 0 {
		completion = defaultCompletionTokens
	}

	return Estimate{
		PromptTokens:     promptTokens,
		CompletionTokens: completion,
		TotalTokens:      promptTokens + completion,
		Exact:            e.encoding != nil,
	}
}
