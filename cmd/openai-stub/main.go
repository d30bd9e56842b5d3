// Command openai-stub answers OpenAI-style chat completions with a canned
// narrative so the tool can run locally without a real key:
//
//	ADDR=:8081 openai-stub &
//	LLM_BASE_URL=http://localhost:8081/v1 LLM_API_KEY=dev gonarrative
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

var (
	audienceRe = regexp.MustCompile(`\*\*([^*]+)\*\*\.`)
	dataLineRe = regexp.MustCompile(`(?m)^- ([^:\n]+): (.+)$`)
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	log.Info().Str("addr", addr).Str("model", model).Msg("openai-stub listening")
	if err := http.ListenAndServe(addr, newMux(model)); err != nil {
		log.Fatal().Err(err).Msg("openai-stub stopped")
	}
}

func newMux(model string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		sys, user := "", ""
		for _, m := range req.Messages {
			switch m.Role {
			case "system":
				sys = m.Content
			case "user":
				user = m.Content
			}
		}
		if !strings.Contains(sys, "financial analyst") {
			http.Error(w, "unexpected system", http.StatusBadRequest)
			return
		}
		content := cannedNarrative(user)
		log.Debug().Str("model", req.Model).Int("chars", len(content)).Msg("chat completion")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "stub-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{
				{"index": 0, "finish_reason": "stop", "message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	})
	return mux
}

// cannedNarrative echoes the audience and the data lines of the prompt back
// as four short paragraphs.
func cannedNarrative(prompt string) string {
	audience := "la dirección"
	if m := audienceRe.FindStringSubmatch(prompt); m != nil {
		audience = m[1]
	}
	var facts []string
	for _, m := range dataLineRe.FindAllStringSubmatch(prompt, -1) {
		facts = append(facts, fmt.Sprintf("%s de %s", strings.ToLower(m[1]), m[2]))
	}
	data := "sin cifras disponibles para las métricas clave"
	if len(facts) > 0 {
		data = strings.Join(facts, "; ")
	}
	return strings.Join([]string{
		fmt.Sprintf("Resumen ejecutivo para %s: el período cerró con los siguientes resultados: %s.", audience, data),
		"En costos y posición financiera, las cifras reportadas definen el margen disponible para la operación.",
		"Los indicadores operativos y ratios muestran el nivel de eficiencia alcanzado en el período.",
		"Como conclusión, se recomienda dar seguimiento a las métricas clave en el próximo período.",
	}, "\n\n")
}
