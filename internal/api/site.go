package api

import (
	"net/http"
)

// handleGetSite returns installation-level information for dashboards:
// the configured company name and fleet summary counts.
func (s *Server) handleGetSite(w http.ResponseWriter, _ *http.Request) {
	devices := s.registry.Devices()
	connected := 0
	for _, d := range devices {
		if d.IsConnected {
			connected++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"company_name":      s.registry.CompanyName(),
		"devices":           len(devices),
		"devices_connected": connected,
	})
}
