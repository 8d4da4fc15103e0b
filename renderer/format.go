package renderer

import (
	"github.com/Rhymond/go-money"
	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"
)

// navDigits is the precision of published net asset values.
const navDigits = 4

var navFormatter = money.NewFormatter(navDigits, ".", ",", "¥", "$1")

// nav formats a net asset value, "¥1.2345".
func nav(d decimal.Decimal) string {
	return navFormatter.Format(d.Round(navDigits).Shift(navDigits).IntPart())
}

// percent formats a ratio as a signed percentage, "+1.23%" for 0.0123.
func percent(ratio decimal.Decimal) string {
	s := ratio.Shift(2).StringFixed(2)
	if ratio.Shift(2).Round(2).IsPositive() {
		s = "+" + s
	}
	return s + "%"
}

// table writes t as is: headers keep their case and long cells are not wrapped.
func table(doc *md.Markdown, t md.TableSet) {
	doc.CustomTable(t, md.TableOptions{AutoWrapText: false, AutoFormatHeaders: false})
}
