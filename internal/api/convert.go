package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/MikeSquared-Agency/harmonize/internal/harmony"
	"github.com/MikeSquared-Agency/harmonize/internal/openwebui"
)

// maxConvertBody caps request bodies; exports bigger than this belong in the
// batch path.
const maxConvertBody = 32 << 20

// ConvertResult pairs one converted chat with its validation findings.
type ConvertResult struct {
	Output     *harmony.Output `json:"output"`
	Violations []string        `json:"violations,omitempty"`
}

// ConvertResponse is the payload for POST /api/v1/harmonize/convert.
type ConvertResponse struct {
	Results []ConvertResult `json:"results"`
	Count   int             `json:"count"`
}

// convert handles POST /api/v1/harmonize/convert. The body is one Open WebUI
// export container; the response carries a walkthrough per chat. Validation
// findings are reported inline and never fail the request.
func (s *Server) convert(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxConvertBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read body: %v", err))
		return
	}

	chats, err := openwebui.ParseContainer(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid container: %v", err))
		return
	}
	if len(chats) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no chats found")
		return
	}

	results := make([]ConvertResult, 0, len(chats))
	for idx := range chats {
		out := s.builder.Build(&chats[idx])
		res := ConvertResult{Output: out}
		if s.validator != nil {
			res.Violations = s.validator.Validate(out.HarmonyWalkthrough)
		}
		results = append(results, res)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ConvertResponse{Results: results, Count: len(results)})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
