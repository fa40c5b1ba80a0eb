package app

import (
	"net/http"

	"github.com/Tribhuvan-Web/cinebook/api"
)

func (app *application) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthCheckResponse{
		Status:      "UP",
		Environment: app.config.env,
		Version:     version,
	}

	app.writeJSON(w, http.StatusOK, resp, nil)
}
