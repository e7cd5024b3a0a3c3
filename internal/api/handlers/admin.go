package handlers

import (
	"net/http"
	"strings"

	"github.com/PxPatel/clob-exchange/internal/api/logger"
	"github.com/PxPatel/clob-exchange/internal/api/models"
	"github.com/PxPatel/clob-exchange/internal/types"
)

func caller(r *http.Request) (string, *models.HTTPError) {
	c := strings.TrimSpace(r.Header.Get(models.CallerHeader))
	if c == "" {
		return "", models.ErrMissingCallerError()
	}
	return c, nil
}

// adminRequest decodes an operator request body and resolves its caller.
func adminRequest(r *http.Request, v interface{}) (string, *models.HTTPError) {
	c, httpErr := caller(r)
	if httpErr != nil {
		return "", httpErr
	}
	if httpErr := decodeBody(r, v); httpErr != nil {
		return "", httpErr
	}
	return c, nil
}

// writePair answers a successful configuration change with the new pair state.
func (eh *ExchangeHolder) writePair(w http.ResponseWriter, pairID, message string) {
	p, err := eh.Exchange.Pair(pairID)
	if err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}
	writeJSON(w, http.StatusOK, models.PairResponse{BaseResponse: ok(message), Pair: p})
}

// GetPairsHandler lists pairs, or one pair when ?pair= is given
func (eh *ExchangeHolder) GetPairsHandler(w http.ResponseWriter, r *http.Request) {
	if id := strings.TrimSpace(r.URL.Query().Get("pair")); id != "" {
		eh.writePair(w, id, "")
		return
	}
	writeJSON(w, http.StatusOK, models.PairsResponse{BaseResponse: ok(""), Pairs: eh.Exchange.Pairs()})
}

// AddPairHandler lists a new pair
func (eh *ExchangeHolder) AddPairHandler(w http.ResponseWriter, r *http.Request) {
	var p types.Pair
	c, httpErr := adminRequest(r, &p)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	if err := eh.Exchange.AddPair(r.Context(), c, &p); err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}
	logger.Info("Pair listed", map[string]interface{}{"pair": p.ID, "admin": c})
	eh.writePair(w, p.ID, "Pair added")
}

// SetAuctionModeHandler moves a pair between trading modes
func (eh *ExchangeHolder) SetAuctionModeHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AuctionModeRequest
	c, httpErr := adminRequest(r, &req)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	mode, err := types.ParseAuctionMode(strings.ToUpper(strings.TrimSpace(req.Mode)))
	if err != nil {
		writeErrorResponse(w, models.ErrBadRequest("Invalid auction mode", map[string]interface{}{"provided_value": req.Mode}))
		return
	}
	if err := eh.Exchange.SetAuctionMode(r.Context(), c, req.Pair, mode); err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}
	eh.writePair(w, req.Pair, "Auction mode updated")
}

// SetAuctionPriceHandler sets the clearing price of a running auction
func (eh *ExchangeHolder) SetAuctionPriceHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AuctionPriceRequest
	c, httpErr := adminRequest(r, &req)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	if err := eh.Exchange.SetAuctionPrice(r.Context(), c, req.Pair, req.Price); err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}
	eh.writePair(w, req.Pair, "Auction price updated")
}

func (eh *ExchangeHolder) SetTradeAmountsHandler(w http.ResponseWriter, r *http.Request) {
	var req models.TradeAmountsRequest
	c, httpErr := adminRequest(r, &req)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	if err := eh.Exchange.SetTradeAmountBounds(r.Context(), c, req.Pair, req.Min, req.Max); err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}
	eh.writePair(w, req.Pair, "Trade amount bounds updated")
}

func (eh *ExchangeHolder) SetFeeRatesHandler(w http.ResponseWriter, r *http.Request) {
	var req models.FeeRatesRequest
	c, httpErr := adminRequest(r, &req)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	if err := eh.Exchange.SetFeeRates(r.Context(), c, req.Pair, req.MakerBps, req.TakerBps); err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}
	eh.writePair(w, req.Pair, "Fee rates updated")
}

func (eh *ExchangeHolder) SetSlippageHandler(w http.ResponseWriter, r *http.Request) {
	var req models.SlippageRequest
	c, httpErr := adminRequest(r, &req)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	if err := eh.Exchange.SetAllowedSlippage(r.Context(), c, req.Pair, req.Percent); err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}
	eh.writePair(w, req.Pair, "Slippage updated")
}

func (eh *ExchangeHolder) SetOrderKindHandler(w http.ResponseWriter, r *http.Request) {
	var req models.OrderKindRequest
	c, httpErr := adminRequest(r, &req)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	kind, err := types.ParseOrderKind(strings.ToUpper(strings.TrimSpace(req.Kind)))
	if err != nil {
		writeErrorResponse(w, models.ErrInvalidOrderTypeError(req.Kind))
		return
	}
	if err := eh.Exchange.EnableOrderKind(r.Context(), c, req.Pair, kind, req.Enabled); err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}
	eh.writePair(w, req.Pair, "Order kinds updated")
}

// MatchAuctionHandler runs one batch of auction matching
func (eh *ExchangeHolder) MatchAuctionHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AuctionMatchRequest
	c, httpErr := adminRequest(r, &req)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	res, err := eh.Exchange.MatchAuctionOrders(r.Context(), c, req.Pair, req.MaxOrders)
	if err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}

	logger.Info("Auction batch matched", map[string]interface{}{
		"pair":   req.Pair,
		"trades": len(res.Trades),
		"admin":  c,
	})
	writeJSON(w, http.StatusOK, models.AuctionMatchResponse{
		BaseResponse: ok(""),
		Pair:         req.Pair,
		Trades:       models.NewTradeDTOs(res.Trades),
		Count:        len(res.Trades),
	})
}

// UnsolicitedCancelHandler removes orders from the best end of a side
func (eh *ExchangeHolder) UnsolicitedCancelHandler(w http.ResponseWriter, r *http.Request) {
	var req models.UnsolicitedCancelRequest
	c, httpErr := adminRequest(r, &req)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	side, err := types.ParseSide(strings.ToUpper(strings.TrimSpace(req.Side)))
	if err != nil {
		writeErrorResponse(w, models.ErrInvalidSideError(req.Side))
		return
	}
	res, err := eh.Exchange.UnsolicitedCancel(r.Context(), c, req.Pair, side, req.Max)
	if err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}

	canceled := make([]models.OrderDTO, len(res.Updated))
	for i, o := range res.Updated {
		canceled[i] = models.NewOrderDTO(o)
	}
	logger.Info("Unsolicited cancel", map[string]interface{}{
		"pair":     req.Pair,
		"side":     side.String(),
		"canceled": len(canceled),
		"admin":    c,
	})
	writeJSON(w, http.StatusOK, models.UnsolicitedCancelResponse{
		BaseResponse: ok(""),
		Pair:         req.Pair,
		Canceled:     canceled,
	})
}
