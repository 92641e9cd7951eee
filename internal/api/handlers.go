package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vobaolong/shopify-be-sub001/internal/api/middleware"
	"github.com/vobaolong/shopify-be-sub001/internal/command"
	"github.com/vobaolong/shopify-be-sub001/internal/domain/ledger"
	"github.com/vobaolong/shopify-be-sub001/internal/domain/order"
	"github.com/vobaolong/shopify-be-sub001/internal/query"
)

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
	}
}

type createOrderRequest struct {
	CartID string `json:"cart_id"`
	order.CheckoutDetails
}

type statusRequest struct {
	Status order.Status `json:"status"`
}

type returnRequest struct {
	Reason string `json:"reason"`
}

type decisionRequest struct {
	Decision order.ReturnStatus `json:"decision"`
}

// Buyer Handlers

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.CartID == "" {
		respondError(w, r, badRequest("cart_id", "is required"))
		return
	}

	o, err := h.cmdHandler.CreateOrder(r.Context(), command.CreateOrder{
		CartID:  req.CartID,
		BuyerID: middleware.GetUserID(r.Context()),
		Details: req.CheckoutDetails,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, o)
}

func (h *Handlers) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, buyerActor(r))
}

func (h *Handlers) GetMyOrder(w http.ResponseWriter, r *http.Request) {
	h.getOrder(w, r, buyerActor(r))
}

// CancelMyOrder lets the buyer request a status change; only cancellation
// inside the allowed window will pass the policy.
func (h *Handlers) CancelMyOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, buyerActor(r))
}

func (h *Handlers) RequestReturn(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	rr, err := h.cmdHandler.RequestReturn(r.Context(), command.RequestReturn{
		OrderID: chi.URLParam(r, "orderID"),
		BuyerID: middleware.GetUserID(r.Context()),
		Reason:  req.Reason,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, rr)
}

func (h *Handlers) ListMyTransactions(w http.ResponseWriter, r *http.Request) {
	h.listTransactions(w, r, ledger.User(middleware.GetUserID(r.Context())))
}

func (h *Handlers) GetMyAccount(w http.ResponseWriter, r *http.Request) {
	h.accountSummary(w, r, ledger.User(middleware.GetUserID(r.Context())))
}

// Store Handlers

func (h *Handlers) ListStoreOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, storeActor(r))
}

func (h *Handlers) GetStoreOrder(w http.ResponseWriter, r *http.Request) {
	h.getOrder(w, r, storeActor(r))
}

func (h *Handlers) TransitionStoreOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, storeActor(r))
}

func (h *Handlers) DecideStoreReturn(w http.ResponseWriter, r *http.Request) {
	h.decideReturn(w, r, storeActor(r))
}

func (h *Handlers) ListStoreTransactions(w http.ResponseWriter, r *http.Request) {
	h.listTransactions(w, r, ledger.Store(chi.URLParam(r, middleware.StoreIDParam)))
}

func (h *Handlers) GetStoreAccount(w http.ResponseWriter, r *http.Request) {
	h.accountSummary(w, r, ledger.Store(chi.URLParam(r, middleware.StoreIDParam)))
}

// Admin Handlers

func (h *Handlers) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, adminActor(r))
}

func (h *Handlers) GetAnyOrder(w http.ResponseWriter, r *http.Request) {
	h.getOrder(w, r, adminActor(r))
}

func (h *Handlers) TransitionAnyOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, adminActor(r))
}

func (h *Handlers) DecideAnyReturn(w http.ResponseWriter, r *http.Request) {
	h.decideReturn(w, r, adminActor(r))
}

func (h *Handlers) ListAccountTransactions(w http.ResponseWriter, r *http.Request) {
	ref, err := accountFromQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.listTransactions(w, r, ref)
}

func (h *Handlers) AuditAccount(w http.ResponseWriter, r *http.Request) {
	ref, err := accountFromQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.queryHandler.AuditAccount(r.Context(), ref)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Shared

func (h *Handlers) transition(w http.ResponseWriter, r *http.Request, actor order.Actor) {
	var req statusRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	o, err := h.cmdHandler.TransitionOrder(r.Context(), command.TransitionOrder{
		OrderID: chi.URLParam(r, "orderID"),
		Actor:   actor,
		Target:  req.Status,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) decideReturn(w http.ResponseWriter, r *http.Request, actor order.Actor) {
	var req decisionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	o, err := h.cmdHandler.DecideReturn(r.Context(), command.DecideReturn{
		OrderID:  chi.URLParam(r, "orderID"),
		Actor:    actor,
		Decision: req.Decision,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) getOrder(w http.ResponseWriter, r *http.Request, actor order.Actor) {
	view, err := h.queryHandler.GetOrder(r.Context(), chi.URLParam(r, "orderID"), actor)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) listOrders(w http.ResponseWriter, r *http.Request, actor order.Actor) {
	f, err := orderFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	page, err := h.queryHandler.ListOrders(r.Context(), actor, f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *Handlers) listTransactions(w http.ResponseWriter, r *http.Request, ref ledger.AccountRef) {
	f, err := transactionFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	page, err := h.queryHandler.ListTransactions(r.Context(), ref, f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *Handlers) accountSummary(w http.ResponseWriter, r *http.Request, ref ledger.AccountRef) {
	summary, err := h.queryHandler.AccountSummary(r.Context(), ref)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("body", "is not valid JSON: "+err.Error())
	}
	return nil
}

func buyerActor(r *http.Request) order.Actor {
	return order.Buyer(middleware.GetUserID(r.Context()))
}

// storeActor acts for the store in the route; RequireStoreAccess has
// already checked membership.
func storeActor(r *http.Request) order.Actor {
	return order.StoreStaff(middleware.GetUserID(r.Context()), chi.URLParam(r, middleware.StoreIDParam))
}

func adminActor(r *http.Request) order.Actor {
	return order.Admin(middleware.GetUserID(r.Context()))
}

// accountFromQuery reads exactly one of user_id and store_id.
func accountFromQuery(r *http.Request) (ledger.AccountRef, error) {
	userID, storeID := r.URL.Query().Get("user_id"), r.URL.Query().Get("store_id")
	switch {
	case userID != "" && storeID == "":
		return ledger.User(userID), nil
	case storeID != "" && userID == "":
		return ledger.Store(storeID), nil
	}
	return ledger.AccountRef{}, badRequest("account", "exactly one of user_id and store_id is required")
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest(name, "must be an integer")
	}
	return n, nil
}

func timeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, badRequest(name, "must be an RFC 3339 timestamp")
	}
	return t, nil
}

func transactionFilter(r *http.Request) (query.TransactionFilter, error) {
	var (
		f   query.TransactionFilter
		err error
	)
	if raw := r.URL.Query().Get("is_up"); raw != "" {
		up, perr := strconv.ParseBool(raw)
		if perr != nil {
			return f, badRequest("is_up", "must be true or false")
		}
		f.IsUp = &up
	}
	f.OrderID = r.URL.Query().Get("order_id")
	if f.Since, err = timeParam(r, "since"); err != nil {
		return f, err
	}
	if f.Until, err = timeParam(r, "until"); err != nil {
		return f, err
	}
	if f.Limit, err = intParam(r, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = intParam(r, "offset"); err != nil {
		return f, err
	}
	return f, nil
}

func orderFilter(r *http.Request) (query.OrderFilter, error) {
	var (
		f   query.OrderFilter
		err error
	)
	f.Status = order.Status(r.URL.Query().Get("status"))
	f.BuyerID = r.URL.Query().Get("user_id")
	f.StoreID = r.URL.Query().Get("store_id")
	if f.Limit, err = intParam(r, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = intParam(r, "offset"); err != nil {
		return f, err
	}
	return f, nil
}

func healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
