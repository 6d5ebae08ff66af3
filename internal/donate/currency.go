// Package donate implements the core business logic for donation payment
// processing. This is the service/use-case layer in Clean Architecture: it
// orchestrates the gateway call sequence for every payment variant and owns
// the gateway error classification and the upsell policy.
package donate

import (
	"strings"

	"github.com/shopspring/decimal"
)

// UpgradeTier maps a one-time donation amount to the monthly amount suggested
// when converting the donor into a subscriber.
type UpgradeTier struct {
	Min     decimal.Decimal // lowest one-time amount this tier applies to
	Suggest decimal.Decimal // monthly amount to offer
}

// CurrencyInfo describes a supported donation currency.
type CurrencyInfo struct {
	Code      string          `json:"code"`
	Symbol    string          `json:"symbol"`
	MinAmount decimal.Decimal `json:"min_amount"`

	// MonthlyUpgrades is ordered from the highest threshold down; the first
	// tier whose Min does not exceed the donated amount wins.
	MonthlyUpgrades []UpgradeTier `json:"-"`
}

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

var standardUpgrades = []UpgradeTier{
	{Min: dec(300), Suggest: dec(30)},
	{Min: dec(200), Suggest: dec(20)},
	{Min: dec(100), Suggest: dec(10)},
	{Min: dec(70), Suggest: dec(7)},
	{Min: dec(35), Suggest: dec(5)},
	{Min: dec(15), Suggest: dec(3)},
}

var dollarUpgrades = []UpgradeTier{
	{Min: dec(400), Suggest: dec(40)},
	{Min: dec(260), Suggest: dec(26)},
	{Min: dec(130), Suggest: dec(13)},
	{Min: dec(90), Suggest: dec(9)},
	{Min: dec(45), Suggest: dec(6)},
	{Min: dec(20), Suggest: dec(4)},
}

// currencies is keyed by lowercase ISO 4217 code.
var currencies = map[string]CurrencyInfo{
	"usd": {Code: "usd", Symbol: "$", MinAmount: dec(2), MonthlyUpgrades: standardUpgrades},
	"eur": {Code: "eur", Symbol: "€", MinAmount: dec(2), MonthlyUpgrades: standardUpgrades},
	"gbp": {Code: "gbp", Symbol: "£", MinAmount: dec(2), MonthlyUpgrades: standardUpgrades},
	"cad": {Code: "cad", Symbol: "$", MinAmount: dec(3), MonthlyUpgrades: dollarUpgrades},
	"aud": {Code: "aud", Symbol: "$", MinAmount: dec(3), MonthlyUpgrades: dollarUpgrades},
}

// CurrencyByCode returns the descriptor for a currency code. Codes are
// matched case-insensitively.
func CurrencyByCode(code string) (CurrencyInfo, bool) {
	info, ok := currencies[strings.ToLower(code)]
	return info, ok
}

// Currencies returns all supported currency descriptors, keyed by code.
func Currencies() map[string]CurrencyInfo {
	out := make(map[string]CurrencyInfo, len(currencies))
	for code, info := range currencies {
		out[code] = info
	}
	return out
}
