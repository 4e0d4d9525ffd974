package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type OrderType int

const (
	OrderTypeBuy  OrderType = 0
	OrderTypeSell OrderType = 1
)

type Order struct {
	ID             int64               `json:"id"`
	Status         OrderStatus         `json:"status"`
	StatusMessage  string              `json:"status_message"`
	Type           OrderType           `json:"type"`
	Currency       int                 `json:"currency"`
	Amount         decimal.NullDecimal `json:"amount"`
	HasRange       bool                `json:"has_range"`
	MinAmount      decimal.NullDecimal `json:"min_amount"`
	MaxAmount      decimal.NullDecimal `json:"max_amount"`
	PaymentMethod  string              `json:"payment_method"`
	IsExplicit     bool                `json:"is_explicit"`
	Premium        decimal.NullDecimal `json:"premium"`
	Satoshis       *int64              `json:"satoshis"`
	BondSize       decimal.Decimal     `json:"bond_size"`
	PublicDuration int64               `json:"public_duration"`
	EscrowDuration int64               `json:"escrow_duration"`
	BondlessTaker  bool                `json:"bondless_taker"`
	IsMaker        bool                `json:"is_maker"`
	IsTaker        bool                `json:"is_taker"`
	IsParticipant  bool                `json:"is_participant"`
	MakerNick      string              `json:"maker_nick"`
	TakerNick      string              `json:"taker_nick"`
	CreatedAt      time.Time           `json:"created_at"`
	ExpiresAt      time.Time           `json:"expires_at"`
}

// UnmarshalJSON leaves Status unknown when the body carries none.
func (o *Order) UnmarshalJSON(data []byte) error {
	type plain Order
	p := plain{Status: OrderStatusUnknown}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*o = Order(p)
	return nil
}

// MakeRequest is the body of POST /api/make/. Nullable fields serialize as JSON null.
type MakeRequest struct {
	Type           OrderType           `json:"type"`
	Currency       int                 `json:"currency"`
	Amount         decimal.NullDecimal `json:"amount"`
	HasRange       bool                `json:"has_range"`
	MinAmount      decimal.NullDecimal `json:"min_amount"`
	MaxAmount      decimal.NullDecimal `json:"max_amount"`
	PaymentMethod  string              `json:"payment_method"`
	IsExplicit     bool                `json:"is_explicit"`
	Premium        decimal.NullDecimal `json:"premium"`
	Satoshis       *int64              `json:"satoshis"`
	PublicDuration int64               `json:"public_duration"`
	EscrowDuration int64               `json:"escrow_duration"`
	BondSize       decimal.Decimal     `json:"bond_size"`
	BondlessTaker  bool                `json:"bondless_taker"`
}

type Limit struct {
	Code              string          `json:"code"`
	Price             decimal.Decimal `json:"price"`
	MinAmount         decimal.Decimal `json:"min_amount"`
	MaxAmount         decimal.Decimal `json:"max_amount"`
	MaxBondlessAmount decimal.Decimal `json:"max_bondless_amount"`
}

// LimitList is keyed by currency id.
type LimitList map[int]Limit

type Version struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

type Info struct {
	NumPublicBuyOrders      int             `json:"num_public_buy_orders"`
	NumPublicSellOrders     int             `json:"num_public_sell_orders"`
	BookLiquidity           int64           `json:"book_liquidity"`
	ActiveRobotsToday       int             `json:"active_robots_today"`
	LastDayNonKYCBTCPremium decimal.Decimal `json:"last_day_nonkyc_btc_premium"`
	LastDayVolume           decimal.Decimal `json:"last_day_volume"`
	LifetimeVolume          decimal.Decimal `json:"lifetime_volume"`
	LNDVersion              string          `json:"lnd_version"`
	CommitHash              string          `json:"robosats_running_commit_hash"`
	AlternativeSite         string          `json:"alternative_site"`
	AlternativeName         string          `json:"alternative_name"`
	NodeAlias               string          `json:"node_alias"`
	NodeID                  string          `json:"node_id"`
	Version                 Version         `json:"version"`
	MakerFee                decimal.Decimal `json:"maker_fee"`
	TakerFee                decimal.Decimal `json:"taker_fee"`
	BondSize                decimal.Decimal `json:"bond_size"`
	CurrentSwapFeeRate      decimal.Decimal `json:"current_swap_fee_rate"`
}

// UserRequest is the body of POST /api/user/.
type UserRequest struct {
	TokenSHA256 string `json:"token_sha256"`
	PubKey      string `json:"pub_key,omitempty"`
	EncPrivKey  string `json:"enc_priv_key,omitempty"`
}

// UserResponse is the robot payload returned by POST /api/user/.
type UserResponse struct {
	Nickname            string          `json:"nickname"`
	ActiveOrderID       *int64          `json:"active_order_id"`
	LastOrderID         *int64          `json:"last_order_id"`
	ReferralCode        string          `json:"referral_code"`
	EarnedRewards       *int64          `json:"earned_rewards"`
	WantsStealth        bool            `json:"wants_stealth"`
	TGEnabled           bool            `json:"tg_enabled"`
	TGBotName           string          `json:"tg_bot_name"`
	TGToken             string          `json:"tg_token"`
	TokenBitsEntropy    decimal.Decimal `json:"token_bits_entropy"`
	TokenShannonEntropy decimal.Decimal `json:"token_shannon_entropy"`
	PublicKey           string          `json:"public_key"`
	EncryptedPrivateKey string          `json:"encrypted_private_key"`
	Found               bool            `json:"found"`
}
