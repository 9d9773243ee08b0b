package handlers

import (
	"net/http"
)

// TestRunway calls the Runway account endpoint with the configured key.
func (a *App) TestRunway(w http.ResponseWriter, r *http.Request) {
	if a.Runway == nil || !a.Runway.HasCredentials() {
		a.json(w, http.StatusOK, map[string]any{"success": false, "apiKeyConfigured": false, "credits": nil})
		return
	}
	account, err := a.Runway.Me(r.Context())
	if err != nil {
		a.log(r).Warn().Err(err).Msg("runway account check failed")
		body := map[string]any{"success": false, "apiKeyConfigured": true, "credits": nil}
		if !a.Config.IsProduction() {
			body["message"] = err.Error()
		}
		a.json(w, http.StatusOK, body)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"success": true, "apiKeyConfigured": true, "credits": account.Credits})
}
