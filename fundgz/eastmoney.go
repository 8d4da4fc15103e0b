package fundgz

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// eastmoney endpoints
var (
	quoteBase = "http://push2.eastmoney.com/api/qt/stock/get"
	f10Base   = "https://fund.eastmoney.com/f10/"
)

// ErrNoRiskLevel is returned when a fund page does not show a risk level.
var ErrNoRiskLevel = errors.New("no risk level")

// prices are published in thousandths
var priceScale = decimal.NewFromInt(1000)

// secID returns the eastmoney security id of an exchange traded fund: 1 for
// Shanghai (5xxxxx), 0 for Shenzhen.
func secID(code string) string {
	if strings.HasPrefix(code, "5") || strings.HasPrefix(code, "6") {
		return "1." + code
	}
	return "0." + code
}

// ETFQuote returns the current price and the previous close of an ETF.
//
//	{"rc":0,"data":{"f43":4123,"f44":4150,"f45":4101,"f46":4110,"f60":4098,"f170":61}}
func ETFQuote(ctx context.Context, client *http.Client, code string) (price, prevClose decimal.Decimal, err error) {
	q := url.Values{}
	q.Set("secid", secID(code))
	q.Set("fields", "f43,f44,f45,f46,f60,f170")
	addr := quoteBase + "?" + strings.ReplaceAll(q.Encode(), "%2C", ",")

	var jobj any
	if err := jwget(ctx, client, addr, &jobj); err != nil {
		return price, prevClose, fmt.Errorf("ETF %s: %w", code, err)
	}
	if price, err = jsonpathPrice(jobj, "$.data.f43"); err != nil {
		return price, prevClose, fmt.Errorf("ETF %s: %w", code, err)
	}
	if prevClose, err = jsonpathPrice(jobj, "$.data.f60"); err != nil {
		return price, prevClose, fmt.Errorf("ETF %s: %w", code, err)
	}
	return price, prevClose, nil
}

func jsonpathPrice(jobj any, path string) (decimal.Decimal, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return decimal.Zero, fmt.Errorf("error parsing %q: %w", path, err)
	}
	// jsonpath may return a list of 1 answer instead of the answer
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	val, ok := jval.(float64)
	if !ok || val <= 0 {
		// suspended or not yet traded securities show "-"
		return decimal.Zero, fmt.Errorf("error parsing %q: no price %v", path, jval)
	}
	return decimal.NewFromFloat(val).Div(priceScale), nil
}

var riskLevels = map[string]string{
	"low1": "R1 低风险",
	"low2": "R2 中低风险",
	"low3": "R3 中等风险",
	"low4": "R4 中高风险",
	"low5": "R5 高风险",
}

// the highlighted cell of the risk scale: <td class="low3 chooseLow">
var chooseLow = regexp.MustCompile(`class=["']?(low[1-5])\s+chooseLow["']?`)

// RiskLevel returns the risk level of a fund, "R1 低风险" to "R5 高风险".
func RiskLevel(ctx context.Context, client *http.Client, code string) (string, error) {
	header := http.Header{}
	header.Set("Referer", "https://fund.eastmoney.com")
	header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	content, err := get(ctx, client, f10Base+"tsdata_"+code+".html", header)
	if err != nil {
		return "", fmt.Errorf("risk level %s: %w", code, err)
	}
	m := chooseLow.FindSubmatch(content)
	if m == nil {
		return "", fmt.Errorf("risk level %s: %w", code, ErrNoRiskLevel)
	}
	return riskLevels[string(m[1])], nil
}
