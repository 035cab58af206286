package upbit

// Wire types for the handful of Upbit endpoints the bot consumes.

type marketInfo struct {
	Market      string `json:"market"`
	KoreanName  string `json:"korean_name"`
	EnglishName string `json:"english_name"`
}

type ticker struct {
	Market     string  `json:"market"`
	TradePrice float64 `json:"trade_price"`
}

type account struct {
	Currency     string `json:"currency"`
	Balance      string `json:"balance"`
	Locked       string `json:"locked"`
	AvgBuyPrice  string `json:"avg_buy_price"`
	UnitCurrency string `json:"unit_currency"`
}

type orderResponse struct {
	UUID      string `json:"uuid"`
	Market    string `json:"market"`
	Side      string `json:"side"`
	OrdType   string `json:"ord_type"`
	Price     string `json:"price"`
	Volume    string `json:"volume"`
	State     string `json:"state"`
	CreatedAt string `json:"created_at"`
}
