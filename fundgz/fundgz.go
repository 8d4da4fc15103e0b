// Package fundgz fetches intraday fund valuations.
//
// Estimates come from the fundgz JSONP service of 天天基金网. ETF linked funds
// without a live estimate fall back to the price change of their ETF on
// eastmoney. Risk levels are scraped from the eastmoney fund pages.
package fundgz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"time"

	"github.com/etnz/fundsync"
	"github.com/etnz/fundsync/date"
	"github.com/shopspring/decimal"
)

// Data sources recorded in fundsync.Estimate.Provider.
const (
	ProviderFundgz = "天天基金网"
	ProviderETF    = "ETF价格计算"
)

// ErrNoQuote is returned when the service knows nothing about a fund.
var ErrNoQuote = errors.New("no quote")

// fundgzBase is the address of the JSONP service.
var fundgzBase = "http://fundgz.1234567.com.cn/js/"

// jsonpgz({"fundcode":"002963",...});
var jsonp = regexp.MustCompile(`(?s)\((\{.+\})\)`)

type payload struct {
	Code     string `json:"fundcode"`
	Name     string `json:"name"`
	NAVDate  string `json:"jzrq"`
	NAV      string `json:"dwjz"`
	Estimate string `json:"gsz"`
	Ratio    string `json:"gszzl"`
	Time     string `json:"gztime"`
}

// Quote returns the fundgz estimate of f.
//
// When the service publishes no estimate the estimate is the latest NAV and
// Provider is empty.
func Quote(ctx context.Context, client *http.Client, f fundsync.Fund) (fundsync.Estimate, error) {
	e := fundsync.Estimate{Fund: f}
	content, err := get(ctx, client, fundgzBase+f.Code+".js", nil)
	if err != nil {
		return e, err
	}
	m := jsonp.FindSubmatch(content)
	if m == nil {
		return e, fmt.Errorf("fund %s: %w", f.Code, ErrNoQuote)
	}
	var p payload
	if err := json.Unmarshal(m[1], &p); err != nil {
		return e, fmt.Errorf("fund %s: cannot parse quote: %w", f.Code, err)
	}

	e.Name = p.Name
	if e.LatestNAV, err = decimal.NewFromString(p.NAV); err != nil {
		return e, fmt.Errorf("fund %s: invalid NAV %q: %w", f.Code, p.NAV, err)
	}
	if p.NAVDate != "" {
		if e.NAVDate, err = date.Parse(p.NAVDate); err != nil {
			return e, fmt.Errorf("fund %s: %w", f.Code, err)
		}
	}
	e.EstimateNAV = e.LatestNAV
	if p.Estimate == "" {
		return e, nil
	}
	if e.EstimateNAV, err = decimal.NewFromString(p.Estimate); err != nil {
		return e, fmt.Errorf("fund %s: invalid estimate %q: %w", f.Code, p.Estimate, err)
	}
	e.Time = p.Time
	e.Provider = ProviderFundgz
	return e, nil
}

// Estimate returns the best available estimate of f.
//
// ETF linked funds without a live fundgz estimate are estimated from the
// latest NAV and the current change of their ETF. A failing fallback is
// logged and the fundgz answer is kept.
func Estimate(ctx context.Context, client *http.Client, f fundsync.Fund) (fundsync.Estimate, error) {
	e, err := Quote(ctx, client, f)
	if err != nil || e.Provider != "" || f.Type != fundsync.ETFLinked || f.ETFCode == "" {
		return e, err
	}
	price, prevClose, err := ETFQuote(ctx, client, f.ETFCode)
	if err != nil {
		log.Println("warning", f.Code, "ETF fallback failed:", err)
		return e, nil
	}
	if prevClose.IsZero() {
		return e, nil
	}
	ratio := price.Sub(prevClose).DivRound(prevClose, 16)
	e.EstimateNAV = e.LatestNAV.Mul(decimal.NewFromInt(1).Add(ratio))
	e.Time = time.Now().Format("2006-01-02 15:04")
	e.Provider = ProviderETF
	return e, nil
}

// EstimateAll returns the estimates of all funds that could be estimated, in
// order. Failures are joined in the returned error.
func EstimateAll(ctx context.Context, client *http.Client, funds fundsync.Funds) ([]fundsync.Estimate, error) {
	estimates := make([]fundsync.Estimate, 0, len(funds))
	var errs []error
	for _, f := range funds {
		if err := ctx.Err(); err != nil {
			return estimates, err
		}
		e, err := Estimate(ctx, client, f)
		if err != nil {
			errs = append(errs, fmt.Errorf("estimate %s: %w", f.Code, err))
			continue
		}
		estimates = append(estimates, e)
	}
	return estimates, errors.Join(errs...)
}
