package fundsync

import (
	"github.com/etnz/fundsync/date"
	"github.com/etnz/fundsync/vika"
	"github.com/shopspring/decimal"
)

// Datasheet columns, in display order. The fund code column is vika.FundCodeField.
const (
	ColName         = "基金名称"
	ColSource       = "来源"
	ColType         = "类型"
	ColRiskLevel    = "风险评级"
	ColLatestNAV    = "昨日净值"
	ColEstimateNAV  = "当前估值"
	ColChangeRatio  = "涨跌幅"
	ColChangeAmount = "涨跌额"
	ColUpdated      = "更新时间"
)

// FundSchema describes the columns of the fund valuation datasheet.
var FundSchema = vika.Schema{Fields: []string{
	ColName, vika.FundCodeField, ColSource, ColType, ColRiskLevel,
	ColLatestNAV, ColEstimateNAV, ColChangeRatio, ColChangeAmount, ColUpdated,
}}

// defaultSource is used when a fund does not say where it is held.
const defaultSource = "其他"

// Estimate is the intraday valuation of a fund.
type Estimate struct {
	Fund        Fund
	Name        string          // as published by the provider
	NAVDate     date.Date       // date of LatestNAV
	LatestNAV   decimal.Decimal // last published net asset value
	EstimateNAV decimal.Decimal // equal to LatestNAV when there is no live estimate
	Time        string          // time of the estimate, as published
	Provider    string          // where EstimateNAV comes from, empty without a live estimate
}

// ChangeAmount returns the estimated change of the net asset value.
func (e Estimate) ChangeAmount() decimal.Decimal { return e.EstimateNAV.Sub(e.LatestNAV) }

// ChangeRatio returns the estimated change relative to the latest NAV, 0.0123 for +1.23%.
func (e Estimate) ChangeRatio() decimal.Decimal {
	if e.LatestNAV.IsZero() {
		return decimal.Zero
	}
	return e.ChangeAmount().DivRound(e.LatestNAV, 16)
}

// Fields returns the datasheet row for this estimate.
func (e Estimate) Fields() vika.Fields {
	source := e.Fund.Source
	if source == "" {
		source = defaultSource
	}
	name := e.Name
	if name == "" {
		name = e.Fund.Name
	}
	updated := e.Time
	if updated == "" {
		updated = e.NAVDate.String()
	}
	return vika.Fields{
		ColName:            name,
		vika.FundCodeField: e.Fund.Code,
		ColSource:          source,
		ColType:            e.Fund.TypeLabel(),
		ColRiskLevel:       e.Fund.RiskLevel,
		ColLatestNAV:       e.LatestNAV.StringFixed(4),
		ColEstimateNAV:     e.EstimateNAV.StringFixed(4),
		ColChangeRatio:     e.ChangeRatio().StringFixed(6),
		ColChangeAmount:    e.ChangeAmount().StringFixed(4),
		ColUpdated:         updated,
	}
}

// Records returns the datasheet rows for the estimates.
func Records(estimates []Estimate) []vika.Fields {
	rows := make([]vika.Fields, len(estimates))
	for i, e := range estimates {
		rows[i] = e.Fields()
	}
	return rows
}
