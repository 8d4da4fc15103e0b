package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/fundsync"
	"github.com/etnz/fundsync/vika"
	md "github.com/nao1215/markdown"
)

// Estimates renders fund valuations as a markdown table.
func Estimates(estimates []fundsync.Estimate) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Fund Valuations")
	if len(estimates) == 0 {
		doc.PlainText("No fund tracked.")
		return doc.String()
	}

	t := md.TableSet{
		Header: []string{
			fundsync.ColName,
			vika.FundCodeField,
			fundsync.ColType,
			fundsync.ColRiskLevel,
			fundsync.ColLatestNAV,
			fundsync.ColEstimateNAV,
			fundsync.ColChangeRatio,
			fundsync.ColUpdated,
		},
	}
	var rising, falling int
	for _, e := range estimates {
		ratio := e.ChangeRatio()
		change := percent(ratio)
		switch {
		case ratio.IsPositive():
			rising++
			change = md.Bold(change)
		case ratio.IsNegative():
			falling++
		}
		if e.Provider == "" {
			change = md.Italic(change)
		}
		row := e.Fields()
		t.Rows = append(t.Rows, []string{
			fmt.Sprint(row[fundsync.ColName]),
			e.Fund.Code,
			e.Fund.TypeLabel(),
			e.Fund.RiskLevel,
			nav(e.LatestNAV),
			nav(e.EstimateNAV),
			change,
			fmt.Sprint(row[fundsync.ColUpdated]),
		})
	}
	table(doc, t)
	doc.PlainText(fmt.Sprintf("%d funds: %d up, %d down. Italic changes have no live estimate.", len(estimates), rising, falling))
	return doc.String()
}
