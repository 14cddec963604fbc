package lsp

import (
	"encoding/json"

	hoverpkg "jaivals/internal/hover"
)

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	if len(msg.Params) == 0 {
		return nil
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	s.applySettings(params.Settings)
	return nil
}

// applySettings reads the "jaiva" section. A changed maxStringLength rebuilds
// every published index so hover strings pick it up.
func (s *Server) applySettings(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var settings lspSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		s.log.Warn().Err(err).Msg("ignoring malformed settings")
		return
	}
	s.mu.Lock()
	if settings.Jaiva.Trace != nil {
		s.traceLSP = *settings.Jaiva.Trace
	}
	s.mu.Unlock()
	if n := settings.Jaiva.MaxStringLength; n != nil && *n > 0 {
		s.setHover(hoverpkg.Renderer{MaxStringLength: *n})
	}
}
