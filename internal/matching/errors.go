package matching

import "strconv"

// Category groups error codes by how a caller should react to them.
type Category uint8

const (
	CategoryValidation Category = iota
	CategoryStateMachine
	CategoryNotFound
	CategoryAuthorization
	CategoryFunding
	CategoryInternal
)

var categoryNames = map[Category]string{
	CategoryValidation:    "validation",
	CategoryStateMachine:  "state",
	CategoryNotFound:      "not_found",
	CategoryAuthorization: "authorization",
	CategoryFunding:       "funding",
	CategoryInternal:      "internal",
}

func (c Category) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return "category(" + strconv.Itoa(int(c)) + ")"
}

// ErrorCode is a typed engine error. Codes are comparable, so callers test
// them with errors.Is even after they have been wrapped with detail.
type ErrorCode uint8

const (
	ErrInvalidPair ErrorCode = iota + 1
	ErrPairExists
	ErrInvalidPairConfig
	ErrInvalidOrder
	ErrInvalidArgument
	ErrTradeAmountOutOfRange
	ErrPrecisionViolation
	ErrOrderKindNotEnabled
	ErrUnsupportedOrderKind
	ErrDuplicateClientOrderID
	ErrNoLiquidity
	ErrFillOrKillUnsatisfiable
	ErrPostOnlyWouldCross
	ErrInvalidPageSize
	ErrStaleCursor

	ErrAuctionStateForbidsOrders
	ErrAuctionStateForbidsCancel
	ErrCrossedBookOnTransition
	ErrAuctionNotMatching
	ErrAuctionNotActive
	ErrAuctionPriceNotSet
	ErrNoAuctionMatch

	ErrOrderNotFound
	ErrOrderTerminal

	ErrUnauthorized

	ErrInsufficientFunds

	ErrBookInvariant
)

type codeInfo struct {
	msg      string
	category Category
}

var errorMapping = map[ErrorCode]codeInfo{
	ErrInvalidPair:             {"trading pair does not exist", CategoryValidation},
	ErrPairExists:              {"trading pair already exists", CategoryValidation},
	ErrInvalidPairConfig:       {"invalid trading pair configuration", CategoryValidation},
	ErrInvalidOrder:            {"invalid order", CategoryValidation},
	ErrInvalidArgument:         {"invalid argument", CategoryValidation},
	ErrTradeAmountOutOfRange:   {"trade amount outside pair limits", CategoryValidation},
	ErrPrecisionViolation:      {"price or quantity finer than display precision", CategoryValidation},
	ErrOrderKindNotEnabled:     {"order kind not enabled for pair", CategoryValidation},
	ErrUnsupportedOrderKind:    {"order kind not supported", CategoryValidation},
	ErrDuplicateClientOrderID:  {"client order id already used", CategoryValidation},
	ErrNoLiquidity:             {"no liquidity on the opposite side", CategoryValidation},
	ErrFillOrKillUnsatisfiable: {"fill-or-kill order cannot be fully filled", CategoryValidation},
	ErrPostOnlyWouldCross:      {"post-only order would cross the book", CategoryValidation},
	ErrInvalidPageSize:         {"page sizes must be positive", CategoryValidation},
	ErrStaleCursor:             {"pagination cursor no longer matches the book", CategoryValidation},

	ErrAuctionStateForbidsOrders: {"auction mode does not accept this order", CategoryStateMachine},
	ErrAuctionStateForbidsCancel: {"auction mode does not accept cancels", CategoryStateMachine},
	ErrCrossedBookOnTransition:   {"book is crossed", CategoryStateMachine},
	ErrAuctionNotMatching:        {"pair is not in auction matching mode", CategoryStateMachine},
	ErrAuctionNotActive:          {"pair is not in an auction", CategoryStateMachine},
	ErrAuctionPriceNotSet:        {"auction price not set", CategoryStateMachine},
	ErrNoAuctionMatch:            {"no orders matched at the auction price", CategoryStateMachine},

	ErrOrderNotFound: {"order not found", CategoryNotFound},
	ErrOrderTerminal: {"order already closed", CategoryNotFound},

	ErrUnauthorized: {"caller not authorized", CategoryAuthorization},

	ErrInsufficientFunds: {"insufficient funds", CategoryFunding},

	ErrBookInvariant: {"order book invariant violated", CategoryInternal},
}

func (e ErrorCode) Error() string {
	if info, ok := errorMapping[e]; ok {
		return info.msg
	}
	return "error code " + strconv.Itoa(int(e))
}

// Category returns the error's class.
func (e ErrorCode) Category() Category {
	if info, ok := errorMapping[e]; ok {
		return info.category
	}
	return CategoryInternal
}

// Name is the code's stable identifier used on the wire.
func (e ErrorCode) Name() string {
	if n, ok := codeNames[e]; ok {
		return n
	}
	return "UNKNOWN"
}

var codeNames = map[ErrorCode]string{
	ErrInvalidPair:               "INVALID_PAIR",
	ErrPairExists:                "PAIR_EXISTS",
	ErrInvalidPairConfig:         "INVALID_PAIR_CONFIG",
	ErrInvalidOrder:              "INVALID_ORDER",
	ErrInvalidArgument:           "INVALID_ARGUMENT",
	ErrTradeAmountOutOfRange:     "TRADE_AMOUNT_OUT_OF_RANGE",
	ErrPrecisionViolation:        "PRECISION_VIOLATION",
	ErrOrderKindNotEnabled:       "ORDER_KIND_NOT_ENABLED",
	ErrUnsupportedOrderKind:      "UNSUPPORTED_ORDER_KIND",
	ErrDuplicateClientOrderID:    "DUPLICATE_CLIENT_ORDER_ID",
	ErrNoLiquidity:               "NO_LIQUIDITY",
	ErrFillOrKillUnsatisfiable:   "FILL_OR_KILL_UNSATISFIABLE",
	ErrPostOnlyWouldCross:        "POST_ONLY_WOULD_CROSS",
	ErrInvalidPageSize:           "INVALID_PAGE_SIZE",
	ErrStaleCursor:               "STALE_CURSOR",
	ErrAuctionStateForbidsOrders: "AUCTION_STATE_FORBIDS_ORDERS",
	ErrAuctionStateForbidsCancel: "AUCTION_STATE_FORBIDS_CANCEL",
	ErrCrossedBookOnTransition:   "CROSSED_BOOK_ON_TRANSITION",
	ErrAuctionNotMatching:        "AUCTION_NOT_MATCHING",
	ErrAuctionNotActive:          "AUCTION_NOT_ACTIVE",
	ErrAuctionPriceNotSet:        "AUCTION_PRICE_NOT_SET",
	ErrNoAuctionMatch:            "NO_AUCTION_MATCH",
	ErrOrderNotFound:             "ORDER_NOT_FOUND",
	ErrOrderTerminal:             "ORDER_TERMINAL",
	ErrUnauthorized:              "UNAUTHORIZED",
	ErrInsufficientFunds:         "INSUFFICIENT_FUNDS",
	ErrBookInvariant:             "BOOK_INVARIANT",
}
