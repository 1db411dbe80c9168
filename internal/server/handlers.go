package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/devansh-07/Sure-Shop/internal/models"
	"github.com/devansh-07/Sure-Shop/internal/store"
	"github.com/devansh-07/Sure-Shop/internal/webhook"
)

const maxWebhookBody = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	category := models.Category(r.URL.Query().Get("category"))
	if category != "" && !category.Valid() {
		respondError(w, http.StatusBadRequest, "Invalid category")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	result, err := store.ListItems(r.Context(), s.db, category, page, pageSize)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := store.GetItemBySlug(r.Context(), s.db, chi.URLParam(r, "slug"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, item)
}

type cartResponse struct {
	Order *models.Order `json:"order"`
	Total string        `json:"total"`
}

func newCartResponse(order *models.Order) cartResponse {
	return cartResponse{Order: order, Total: order.Total().StringFixed(2)}
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	order, err := store.GetOpenOrder(r.Context(), s.db, userID(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(order))
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	order, err := store.AddItem(r.Context(), s.db, userID(r), chi.URLParam(r, "slug"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(order))
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	order, err := store.RemoveItem(r.Context(), s.db, userID(r), chi.URLParam(r, "slug"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(order))
}

func (s *Server) handleDecrementCart(w http.ResponseWriter, r *http.Request) {
	order, err := store.DecrementItem(r.Context(), s.db, userID(r), chi.URLParam(r, "slug"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(order))
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Street     string `json:"street"`
		Unit       string `json:"unit"`
		Country    string `json:"country"`
		PostalCode string `json:"postal_code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Street == "" || req.Country == "" || req.PostalCode == "" {
		respondError(w, http.StatusBadRequest, "street, country and postal_code are required")
		return
	}

	order, err := store.GetOpenOrder(r.Context(), s.db, userID(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	address, err := store.AttachShippingAddress(r.Context(), s.db, order.ID, store.ShippingAddressInput{
		Street:     req.Street,
		Unit:       req.Unit,
		Country:    req.Country,
		PostalCode: req.PostalCode,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, address)
}

func (s *Server) handleCheckoutSession(w http.ResponseWriter, r *http.Request) {
	order, err := store.GetOpenOrder(r.Context(), s.db, userID(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	redirectURL, err := s.broker.CreateSession(r.Context(), order)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"redirect_url": redirectURL})
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := store.ListFulfilledOrders(r.Context(), s.db, userID(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Subject == "" || req.Message == "" {
		respondError(w, http.StatusBadRequest, "subject and message are required")
		return
	}

	message, err := store.CreateMessage(r.Context(), s.db, userID(r), req.Subject, req.Message)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, message)
}

// handleWebhook returns 200 only when the event is durably applied or was
// already applied; any earlier failure tells the processor to redeliver.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Unreadable payload")
		return
	}

	err = s.reconciler.HandleEvent(r.Context(), payload, r.Header.Get(webhook.SignatureHeader))
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) || errors.Is(err, webhook.ErrMalformedPayload) {
			respondDomainError(w, err)
			return
		}
		// Not yet committed; a retry can succeed.
		s.logger.Error().Err(err).Msg("webhook processing failed")
		respondError(w, http.StatusInternalServerError, "Event not applied")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "received"})
}
