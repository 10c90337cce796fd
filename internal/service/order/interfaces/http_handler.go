package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/bizerr"
	"storefront/internal/pkg/logger"
	"storefront/internal/service/order/application"
)

// OrderHandler 封装了订单服务的 HTTP 处理器
type OrderHandler struct {
	service *application.OrderApplicationService
	configs *application.StoreConfigService
}

func NewOrderHandler(service *application.OrderApplicationService, configs *application.StoreConfigService) *OrderHandler {
	return &OrderHandler{service: service, configs: configs}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders/quote", h.handleQuote)
	mux.HandleFunc("POST /orders", h.handleCreate)
	mux.HandleFunc("POST /orders/{code}/{action}", h.handleTransition)
	mux.HandleFunc("PUT /admin/stores/{id}/config", h.handleUpdateStoreConfig)
}

func (h *OrderHandler) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req application.PriceOrderRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.service.Quote(withStore(extract(r), req.StoreID), &req)
	respond(w, r, resp, err)
}

func (h *OrderHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req application.PriceOrderRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.service.Create(withStore(extract(r), req.StoreID), &req)
	if err != nil && resp != nil {
		writeJSON(w, bizerr.HTTPStatus(err), map[string]any{"error": err.Error(), "order": resp})
		return
	}
	respond(w, r, resp, err)
}

func (h *OrderHandler) handleTransition(w http.ResponseWriter, r *http.Request) {
	to, ok := application.Action[r.PathValue("action")]
	if !ok {
		http.Error(w, "unknown action", http.StatusNotFound)
		return
	}
	var req application.TransitionRequest
	if !decode(w, r, &req) {
		return
	}
	req.Code = r.PathValue("code")
	resp, err := h.service.Transition(withStore(extract(r), req.StoreID), &req, to)
	respond(w, r, resp, err)
}

func (h *OrderHandler) handleUpdateStoreConfig(w http.ResponseWriter, r *http.Request) {
	storeID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid store id", http.StatusBadRequest)
		return
	}
	var req application.StoreConfigRequest
	if !decode(w, r, &req) {
		return
	}
	err = h.configs.UpdateStoreConfig(withStore(extract(r), storeID), storeID, &req)
	respond(w, r, map[string]bool{"ok": err == nil}, err)
}

func extract(r *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

// withStore 通过 Baggage 向下游服务传递门店 ID
func withStore(ctx context.Context, storeID int64) context.Context {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("store.id", storeID))
	m, err := baggage.NewMember("store_id", strconv.FormatInt(storeID, 10))
	if err != nil {
		return ctx
	}
	b, err := baggage.FromContext(ctx).SetMember(m)
	if err != nil {
		return ctx
	}
	return baggage.ContextWithBaggage(ctx, b)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func respond(w http.ResponseWriter, r *http.Request, resp any, err error) {
	if err != nil {
		status := bizerr.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			logger.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
