package llm

import (
	"fmt"
	"os"
)

// NewProvider creates the completion provider for the given model. The API
// key comes from the OPENAI_API_KEY environment variable.
func NewProvider(model string) (Provider, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}
	return NewOpenAIProvider(apiKey, model), nil
}
