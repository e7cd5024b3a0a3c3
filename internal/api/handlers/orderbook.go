package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/PxPatel/clob-exchange/internal/api/logger"
	"github.com/PxPatel/clob-exchange/internal/api/models"
	"github.com/PxPatel/clob-exchange/internal/book"
	"github.com/PxPatel/clob-exchange/internal/types"
)

var two = decimal.NewFromInt(2)

func spreadAndMid(bid, ask decimal.Decimal) (spread, mid decimal.Decimal) {
	if bid.IsZero() || ask.IsZero() {
		return decimal.Zero, decimal.Zero
	}
	return ask.Sub(bid), bid.Add(ask).Div(two)
}

func querySide(r *http.Request) (types.Side, *models.HTTPError) {
	v := r.URL.Query().Get("side")
	side, err := types.ParseSide(strings.ToUpper(strings.TrimSpace(v)))
	if err != nil {
		return 0, models.ErrInvalidSideError(v)
	}
	return side, nil
}

func queryDecimal(r *http.Request, key string) (decimal.Decimal, *models.HTTPError) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, models.ErrBadRequest("Invalid decimal", map[string]interface{}{"field": key, "provided_value": v})
	}
	return d, nil
}

// GetOrderBookHandler handles aggregated depth snapshot requests
func (eh *ExchangeHolder) GetOrderBookHandler(w http.ResponseWriter, r *http.Request) {
	pair, httpErr := requirePair(r)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	depth := queryLimit(r, "depth", eh.Limits.DefaultOrderBookDepth, eh.Limits.MaxOrderBookDepth)

	bidLevels, askLevels, err := eh.Exchange.Depth(pair, depth)
	if err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}
	bids := models.NewPriceLevels(bidLevels)
	asks := models.NewPriceLevels(askLevels)

	var spread, midPrice decimal.Decimal
	if len(bids) > 0 && len(asks) > 0 {
		spread, midPrice = spreadAndMid(bids[0].Price, asks[0].Price)
	}

	logger.Debug("Order book snapshot retrieved", map[string]interface{}{
		"pair":       pair,
		"bid_levels": len(bids),
		"ask_levels": len(asks),
	})

	writeJSON(w, http.StatusOK, models.OrderBookResponse{
		BaseResponse: ok(""),
		Pair:         pair,
		Bids:         bids,
		Asks:         asks,
		Spread:       spread,
		MidPrice:     midPrice,
	})
}

// GetTopOfBookHandler handles best bid/ask requests
func (eh *ExchangeHolder) GetTopOfBookHandler(w http.ResponseWriter, r *http.Request) {
	pair, httpErr := requirePair(r)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	top, err := eh.Exchange.BestPrices(pair)
	if err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}

	var bestBid, bestAsk *models.BestQuote
	if !top.BidPrice.IsZero() {
		bestBid = &models.BestQuote{Price: top.BidPrice, Quantity: top.BidQuantity}
	}
	if !top.AskPrice.IsZero() {
		bestAsk = &models.BestQuote{Price: top.AskPrice, Quantity: top.AskQuantity}
	}
	spread, midPrice := spreadAndMid(top.BidPrice, top.AskPrice)

	writeJSON(w, http.StatusOK, models.TopOfBookResponse{
		BaseResponse: ok(""),
		Pair:         pair,
		BestBid:      bestBid,
		BestAsk:      bestAsk,
		Spread:       spread,
		MidPrice:     midPrice,
	})
}

// GetBookPageHandler reads one page of a book side. Clients pass back
// next_price and next_order_id as cursor_price and cursor_order_id.
func (eh *ExchangeHolder) GetBookPageHandler(w http.ResponseWriter, r *http.Request) {
	pair, httpErr := requirePair(r)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	side, httpErr := querySide(r)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	cursorPrice, httpErr := queryDecimal(r, "cursor_price")
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	var cursorOrder uint64
	if v := r.URL.Query().Get("cursor_order_id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeErrorResponse(w, models.ErrBadRequest("Invalid cursor_order_id", map[string]interface{}{"provided_value": v}))
			return
		}
		cursorOrder = n
	}
	prices := queryLimit(r, "prices", eh.Limits.DefaultOrderBookDepth, eh.Limits.MaxOrderBookDepth)
	orders := queryLimit(r, "orders", eh.Limits.DefaultOrderLimit, eh.Limits.MaxOrderLimit)

	page, err := eh.Exchange.Page(pair, side, prices, orders, book.Cursor{Price: cursorPrice, OrderID: cursorOrder})
	if err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}

	writeJSON(w, http.StatusOK, models.BookPageResponse{
		BaseResponse: ok(""),
		Pair:         pair,
		Side:         side.String(),
		Levels:       models.NewPriceLevels(page.Levels),
		NextPrice:    page.Next.Price,
		NextOrderID:  page.Next.OrderID,
		Done:         page.Next.Done(),
	})
}

// GetLevelHandler lists the quantities queued at one price
func (eh *ExchangeHolder) GetLevelHandler(w http.ResponseWriter, r *http.Request) {
	pair, httpErr := requirePair(r)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	side, httpErr := querySide(r)
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	price, httpErr := queryDecimal(r, "price")
	if httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	if !price.IsPositive() {
		writeErrorResponse(w, models.ErrInvalidPriceError(price.String()))
		return
	}

	qtys, err := eh.Exchange.QuantitiesAtPrice(pair, side, price)
	if err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}
	writeJSON(w, http.StatusOK, models.LevelResponse{
		BaseResponse: ok(""),
		Pair:         pair,
		Side:         side.String(),
		Price:        price,
		Quantities:   qtys,
	})
}
