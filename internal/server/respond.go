package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/devansh-07/Sure-Shop/internal/checkout"
	"github.com/devansh-07/Sure-Shop/internal/database"
	"github.com/devansh-07/Sure-Shop/internal/webhook"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// respondDomainError maps the error taxonomy onto status codes. Anything
// unmapped is a persistence or programming failure and surfaces as 500.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrItemNotFound),
		errors.Is(err, database.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrNoActiveOrder),
		errors.Is(err, database.ErrItemNotInCart),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrNoShippingAddress):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrOrderClosed):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, webhook.ErrInvalidSignature),
		errors.Is(err, webhook.ErrMalformedPayload):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrPaymentProvider):
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
