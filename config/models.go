package config

import (
	"strings"

	"summarease/domain"
)

// DefaultModels returns the supported summarization models. Endpoints are
// resolved against the inference API base URL.
func DefaultModels(apiURL string) []domain.ModelSpec {
	base := strings.TrimRight(apiURL, "/")
	return []domain.ModelSpec{
		{
			ID:               "bart-cnn",
			DisplayName:      "BART Large CNN",
			Endpoint:         base + "/facebook/bart-large-cnn",
			MaxInputTokens:   1024,
			DefaultMaxLength: 150,
			DefaultMinLength: 30,
		},
		{
			ID:               "distilbart-cnn",
			DisplayName:      "DistilBART CNN 12-6",
			Endpoint:         base + "/sshleifer/distilbart-cnn-12-6",
			MaxInputTokens:   1024,
			DefaultMaxLength: 142,
			DefaultMinLength: 56,
		},
		{
			ID:               "t5-small",
			DisplayName:      "T5 Small",
			Endpoint:         base + "/t5-small",
			MaxInputTokens:   512,
			DefaultMaxLength: 120,
			DefaultMinLength: 20,
		},
		{
			ID:               "pegasus-xsum",
			DisplayName:      "Pegasus XSum",
			Endpoint:         base + "/google/pegasus-xsum",
			MaxInputTokens:   512,
			DefaultMaxLength: 64,
			DefaultMinLength: 10,
		},
	}
}

// ModelRegistry builds the static registry for this configuration.
func (c *SummarizerConfig) ModelRegistry() (*domain.ModelRegistry, error) {
	return domain.NewModelRegistry(c.DefaultModel, DefaultModels(c.APIURL)...)
}

// QueueEnabled reports whether jobs go through the work queue. Without a
// queue URL, or with PROCESS_DIRECTLY set, jobs are processed inline.
func (c *Config) QueueEnabled() bool {
	return c.Redis.URL != "" && !c.Processor.ProcessDirectly
}
