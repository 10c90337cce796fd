package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"storefront/internal/pkg/bizerr"
	"storefront/internal/pkg/logger"
	"storefront/internal/service/campaign/application"
)

// CampaignHandler 封装了活动管理的 HTTP 处理器
type CampaignHandler struct {
	service *application.CampaignService
}

func NewCampaignHandler(service *application.CampaignService) *CampaignHandler {
	return &CampaignHandler{service: service}
}

// RegisterRoutes 注册后台管理路由
func (h *CampaignHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /admin/flash-sales", h.handleSaveFlashSale)
	mux.HandleFunc("POST /admin/promotions", h.handleSavePromotion)
	mux.HandleFunc("POST /admin/coupon-campaigns", h.handleSaveCouponCampaign)
	mux.HandleFunc("POST /admin/coupon-campaigns/{id}/issue", h.handleIssueCoupons)
}

func (h *CampaignHandler) handleSaveFlashSale(w http.ResponseWriter, r *http.Request) {
	var req application.SaveFlashSaleRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.service.SaveFlashSale(extract(r), &req)
	respond(w, r, resp, err)
}

func (h *CampaignHandler) handleSavePromotion(w http.ResponseWriter, r *http.Request) {
	var req application.SavePromotionRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.service.SavePromotion(extract(r), &req)
	respond(w, r, resp, err)
}

func (h *CampaignHandler) handleSaveCouponCampaign(w http.ResponseWriter, r *http.Request) {
	var req application.SaveCouponCampaignRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.service.SaveCouponCampaign(extract(r), &req)
	respond(w, r, resp, err)
}

func (h *CampaignHandler) handleIssueCoupons(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}
	var req application.IssueCouponsRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.service.IssueCoupons(extract(r), id, &req)
	respond(w, r, resp, err)
}

func extract(r *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
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
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
