package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/fundsync"
	md "github.com/nao1215/markdown"
)

// Funds renders the tracked funds.
func Funds(funds fundsync.Funds) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Tracked Funds")
	if len(funds) == 0 {
		doc.PlainText("No fund tracked.")
		return doc.String()
	}
	t := md.TableSet{
		Header: []string{"Code", "Name", "Type", "Tracks", "Risk", "Source"},
	}
	for _, f := range funds {
		tracks := ""
		switch {
		case f.ETFCode != "":
			tracks = fmt.Sprintf("%s %s", f.ETFCode, f.ETFName)
		case f.IndexCode != "":
			tracks = fmt.Sprintf("%s %s", f.IndexCode, f.IndexName)
		}
		t.Rows = append(t.Rows, []string{f.Code, f.Name, f.TypeLabel(), tracks, f.RiskLevel, f.Source})
	}
	table(doc, t)
	return doc.String()
}
