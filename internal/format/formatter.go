// Package format turns raw price record fields into display strings.
// All functions are pure.
package format

import (
	"fmt"
	"math"

	"github.com/vitos/crypto_price_tracker/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCurrency renders two fixed decimals with thousands separators, e.g. "51,111.10".
func FormatCurrency(x float64) string {
	return printer.Sprintf("%.2f", x)
}

// FormatUSD is FormatCurrency with a dollar prefix.
func FormatUSD(x float64) string {
	return "$" + FormatCurrency(x)
}

// FormatMagnitude abbreviates large values: $1.01T, $630.79B, $12.50M.
func FormatMagnitude(x float64) string {
	switch {
	case x >= 1e12:
		return fmt.Sprintf("$%.2fT", x/1e12)
	case x >= 1e9:
		return fmt.Sprintf("$%.2fB", x/1e9)
	case x >= 1e6:
		return fmt.Sprintf("$%.2fM", x/1e6)
	default:
		return FormatUSD(x)
	}
}

// FormatMarketCap marks derived market caps with a leading "~".
func FormatMarketCap(x float64, approximated bool) string {
	if approximated {
		return "~" + FormatMagnitude(x)
	}
	return FormatMagnitude(x)
}

func sign(changeAbsolute float64) string {
	if changeAbsolute >= 0 {
		return "+"
	}
	return "-"
}

// FormatChange renders the absolute 24h change as "+$1,234.56" or "-$2,500.75".
func FormatChange(changeAbsolute float64) string {
	return sign(changeAbsolute) + "$" + FormatCurrency(math.Abs(changeAbsolute))
}

// FormatChangePercent renders the percent change. The sign follows the
// absolute change, not the percent value.
func FormatChangePercent(changeAbsolute, changePercent float64) string {
	return fmt.Sprintf("%s%.2f%%", sign(changeAbsolute), math.Abs(changePercent))
}

// Direction is the css-style class for a change value.
func Direction(changeAbsolute float64) string {
	if changeAbsolute >= 0 {
		return "positive"
	}
	return "negative"
}

type PriceView struct {
	Price         string `json:"price"`
	Change        string `json:"change"`
	ChangePercent string `json:"change_percent"`
	Direction     string `json:"direction"`
	High24h       string `json:"high_24h"`
	Low24h        string `json:"low_24h"`
	MarketCap     string `json:"market_cap"`
	Volume24h     string `json:"volume_24h"`
}

// View builds every display string for a record.
func View(r domain.PriceRecord) PriceView {
	return PriceView{
		Price:         FormatCurrency(r.Price),
		Change:        FormatChange(r.ChangeAbsolute),
		ChangePercent: FormatChangePercent(r.ChangeAbsolute, r.ChangePercent),
		Direction:     Direction(r.ChangeAbsolute),
		High24h:       FormatCurrency(r.High24h),
		Low24h:        FormatCurrency(r.Low24h),
		MarketCap:     FormatMarketCap(r.MarketCap, r.MarketCapApproximated),
		Volume24h:     FormatMagnitude(r.Volume24h),
	}
}

// AlertAddedMessage is shown after an alert is created.
func AlertAddedMessage(asset domain.Asset, alert domain.PriceAlert) string {
	return fmt.Sprintf("Alert added: %s %s %s", asset.Name, alert.Condition, FormatUSD(alert.Price))
}

// AlertFiredMessage is shown when an alert condition holds.
func AlertFiredMessage(asset domain.Asset, alert domain.PriceAlert, current float64) string {
	return fmt.Sprintf("%s is now %s %s! Current price: %s", asset.Name, alert.Condition, FormatUSD(alert.Price), FormatUSD(current))
}
