package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/PxPatel/clob-exchange/internal/api/logger"
	"github.com/PxPatel/clob-exchange/internal/api/models"
	"github.com/PxPatel/clob-exchange/internal/matching"
	"github.com/PxPatel/clob-exchange/internal/storage"
	"github.com/PxPatel/clob-exchange/internal/types"
)

// submit validates and places one order. Orders without a client id get a
// generated one so every order can be correlated by the client.
func (eh *ExchangeHolder) submit(r *http.Request, req *models.SubmitOrderRequest) (*matching.Result, *models.HTTPError) {
	if httpErr := req.Validate(); httpErr != nil {
		return nil, httpErr
	}
	if req.ClientOrderID == "" {
		req.ClientOrderID = uuid.NewString()
	}
	res, err := eh.Exchange.SubmitOrder(r.Context(), strings.TrimSpace(req.Pair), req.ToEngine())
	if err != nil {
		return nil, models.FromError(err)
	}
	return res, nil
}

// SubmitOrderHandler handles single order submission
func (eh *ExchangeHolder) SubmitOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitOrderRequest
	if httpErr := decodeBody(r, &req); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}

	res, httpErr := eh.submit(r, &req)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}

	logger.Info("Order submitted successfully", map[string]interface{}{
		"order_id": res.Order.ID,
		"user_id":  res.Order.Trader,
		"pair":     res.Order.PairID,
		"type":     res.Order.Kind.String(),
		"side":     res.Order.Side.String(),
		"status":   res.Order.Status.String(),
		"trades":   len(res.Trades),
	})

	order := models.NewOrderDTO(res.Order)
	writeJSON(w, http.StatusOK, models.SubmitOrderResponse{
		BaseResponse: ok("Order submitted successfully"),
		OrderID:      res.Order.ID,
		Order:        &order,
		Trades:       models.NewTradeDTOs(res.Trades),
	})
}

// BatchOrderHandler handles batch order submission. Orders are placed in
// request order; one failure does not stop the rest.
func (eh *ExchangeHolder) BatchOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req models.BatchOrderRequest
	if httpErr := decodeBody(r, &req); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	if httpErr := req.Validate(); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}

	results := make([]models.BatchOrderResult, len(req.Orders))
	successful := 0
	failed := 0

	for i := range req.Orders {
		result := models.BatchOrderResult{Index: i}
		res, httpErr := eh.submit(r, &req.Orders[i])
		if httpErr != nil {
			result.Error = &httpErr.Error
			failed++
		} else {
			result.Success = true
			result.OrderID = res.Order.ID
			result.Status = res.Order.Status.String()
			result.Trades = models.NewTradeDTOs(res.Trades)
			successful++
		}
		results[i] = result
	}

	logger.Info("Batch order processed", map[string]interface{}{
		"total":      len(req.Orders),
		"successful": successful,
		"failed":     failed,
	})

	writeJSON(w, http.StatusOK, models.BatchOrderResponse{
		BaseResponse: ok(""),
		Results:      results,
		Summary: models.BatchOrderSummary{
			Total:      len(req.Orders),
			Successful: successful,
			Failed:     failed,
		},
	})
}

// CancelOrderHandler handles order cancellation
func (eh *ExchangeHolder) CancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID, httpErr := pathOrderID(r)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeErrorResponse(w, models.ErrBadRequest("user_id query parameter is required", map[string]interface{}{"field": "user_id"}))
		return
	}

	if _, err := eh.Exchange.CancelOrder(r.Context(), userID, orderID); err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}

	logger.Info("Order cancelled", map[string]interface{}{
		"order_id": orderID,
		"user_id":  userID,
	})

	writeJSON(w, http.StatusOK, models.CancelOrderResponse{
		BaseResponse: ok("Order cancelled successfully"),
		OrderID:      orderID,
	})
}

// ReplaceOrderHandler cancels a live order and places its replacement
func (eh *ExchangeHolder) ReplaceOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID, httpErr := pathOrderID(r)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	var req models.ReplaceOrderRequest
	if httpErr := decodeBody(r, &req); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	if httpErr := req.Validate(); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	if req.ClientOrderID == "" {
		req.ClientOrderID = uuid.NewString()
	}

	res, err := eh.Exchange.CancelReplaceOrder(r.Context(), strings.TrimSpace(req.UserID), orderID, req.ClientOrderID, req.Price, req.Quantity)
	if err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}

	logger.Info("Order replaced", map[string]interface{}{
		"order_id":     orderID,
		"replacement":  res.Order.ID,
		"user_id":      req.UserID,
		"trades":       len(res.Trades),
		"order_status": res.Order.Status.String(),
	})

	order := models.NewOrderDTO(res.Order)
	writeJSON(w, http.StatusOK, models.SubmitOrderResponse{
		BaseResponse: ok("Order replaced successfully"),
		OrderID:      res.Order.ID,
		Order:        &order,
		Trades:       models.NewTradeDTOs(res.Trades),
	})
}

// CancelAllHandler cancels a list of a trader's orders
func (eh *ExchangeHolder) CancelAllHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CancelAllRequest
	if httpErr := decodeBody(r, &req); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	if httpErr := req.Validate(); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}

	outcomes := eh.Exchange.CancelAllOrders(r.Context(), strings.TrimSpace(req.UserID), req.OrderIDs)
	results := make([]models.CancelOutcomeDTO, len(outcomes))
	canceled := 0
	for i, o := range outcomes {
		results[i] = models.CancelOutcomeDTO{OrderID: o.OrderID, Canceled: o.Canceled}
		if o.Err != nil {
			results[i].Error = &models.FromError(o.Err).Error
		}
		if o.Canceled {
			canceled++
		}
	}

	logger.Info("Cancel-all processed", map[string]interface{}{
		"user_id":   req.UserID,
		"requested": len(req.OrderIDs),
		"canceled":  canceled,
	})

	writeJSON(w, http.StatusOK, models.CancelAllResponse{
		BaseResponse: ok(""),
		Results:      results,
	})
}

// GetOrderHandler handles retrieving a single order
func (eh *ExchangeHolder) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID, httpErr := pathOrderID(r)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}

	order, err := eh.Exchange.GetOrder(orderID)
	if err != nil {
		if errors.Is(err, matching.ErrOrderNotFound) {
			writeErrorResponse(w, models.ErrOrderNotFoundError(orderID))
			return
		}
		writeErrorResponse(w, models.FromError(err))
		return
	}

	dto := models.NewOrderDTO(order)
	writeJSON(w, http.StatusOK, models.GetOrderResponse{
		BaseResponse: ok(""),
		Order:        &dto,
	})
}

// GetAllOrdersHandler lists orders filtered by user, pair, side and status
func (eh *ExchangeHolder) GetAllOrdersHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.Filter{
		Trader: strings.TrimSpace(q.Get("user_id")),
		PairID: strings.TrimSpace(q.Get("pair")),
	}
	if v := q.Get("side"); v != "" {
		side, err := types.ParseSide(strings.ToUpper(v))
		if err != nil {
			writeErrorResponse(w, models.ErrInvalidSideError(v))
			return
		}
		filter.Side = &side
	}
	if v := q.Get("status"); v != "" {
		status, err := parseStatus(v)
		if err != nil {
			writeErrorResponse(w, models.ErrBadRequest("Invalid status", map[string]interface{}{"provided_value": v}))
			return
		}
		filter.Status = &status
	}
	limit := queryLimit(r, "limit", eh.Limits.DefaultOrderLimit, eh.Limits.MaxOrderLimit)

	orders := eh.Exchange.Orders(filter)
	if len(orders) > limit {
		orders = orders[:limit]
	}

	orderDTOs := make([]models.OrderDTO, len(orders))
	for i, order := range orders {
		orderDTOs[i] = models.NewOrderDTO(order)
	}

	logger.Debug("Retrieved orders", map[string]interface{}{
		"count": len(orderDTOs),
	})

	writeJSON(w, http.StatusOK, models.GetOrdersResponse{
		BaseResponse: ok(""),
		Orders:       orderDTOs,
		Count:        len(orderDTOs),
	})
}

func parseStatus(v string) (types.OrderStatus, error) {
	var s types.OrderStatus
	err := s.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(v))))
	return s, err
}
