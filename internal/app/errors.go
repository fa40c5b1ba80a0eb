package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/Tribhuvan-Web/cinebook/api"
	appvalidator "github.com/Tribhuvan-Web/cinebook/internal/validator"
)

func (app *application) logError(r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.Error(err.Error(), "method", method, "uri", uri)
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := api.ErrorResponse{
		Message:   message,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	message := "The server encountered a problem and could not process your request"
	app.errorResponse(w, r, http.StatusInternalServerError, message)
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "The requested resource not found"
	app.errorResponse(w, r, http.StatusNotFound, message)
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *application) editConflictResponseWithErr(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusConflict, err.Error())
}

func (app *application) goneResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusGone, err.Error())
}

func (app *application) paymentRequiredResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusPaymentRequired, err.Error())
}

func (app *application) badGatewayResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	message := "The payment provider could not process your request, please try again later"
	app.errorResponse(w, r, http.StatusBadGateway, message)
}

func (app *application) unprocessableEntityResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
}

func (app *application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		app.badRequestResponse(w, r, err)
		return
	}

	details := make([]api.ValidationErrorDetail, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		details = append(details, api.ValidationErrorDetail{
			Field:   fieldError.Field(),
			Message: appvalidator.ValidationMessage(fieldError),
		})
	}

	resp := api.ValidationErrorResponse{
		Message:   "Validation failed",
		Errors:    details,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	writeErr := app.writeJSON(w, http.StatusUnprocessableEntity, resp, nil)
	if writeErr != nil {
		app.logError(r, writeErr)
		w.WriteHeader(500)
	}
}
