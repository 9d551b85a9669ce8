package generation

import (
	"log/slog"
	"net/http"

	"github.com/nyaynow/confessions-backend/internal/config"
)

// FromConfig builds the gateway from AI_CANDIDATES. Candidates whose
// provider has no API key, or is unknown, are left out with a warning.
func FromConfig(cfg *config.Config, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}

	httpClient := &http.Client{Timeout: cfg.AITimeout}
	providers := make(map[string]Provider)
	var candidates []Candidate

	for _, cand := range cfg.AICandidates {
		key := cfg.APIKey(cand.Provider)
		if key == "" {
			log.Warn("skipping generation candidate without API key", "provider", cand.Provider, "model", cand.Model)
			continue
		}

		p, ok := providers[cand.Provider]
		if !ok {
			switch cand.Provider {
			case "anthropic":
				p = NewAnthropicClient(key, cfg.APIURL(cand.Provider))
			case "openai", "deepseek", "glm", "gemini":
				p = NewChatCompletionsClient(cand.Provider, cfg.APIURL(cand.Provider), key, httpClient)
			default:
				log.Warn("skipping generation candidate with unknown provider", "provider", cand.Provider)
				continue
			}
			providers[cand.Provider] = p
		}
		candidates = append(candidates, NewCandidate(cand.Provider, cand.Model, p))
	}

	gw := NewGateway(candidates, cfg.AITimeout, log)
	log.Info("generation gateway ready", "candidates", gw.Candidates())
	return gw
}
