package renderer

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/etnz/fundsync/vika"
	md "github.com/nao1215/markdown"
)

// Plan renders the changes a sync would apply, fields in schema order.
func Plan(plan vika.Plan, schema vika.Schema) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Sync Plan")
	table(doc, counts("Planned",
		len(plan.Create),
		len(plan.Update),
		len(plan.Delete)))

	if plan.IsEmpty() {
		doc.PlainText("Nothing to do.")
		return doc.String()
	}

	if len(plan.Create) > 0 {
		doc.H2("Create")
		t := md.TableSet{Header: schema.Fields}
		for _, f := range plan.Create {
			t.Rows = append(t.Rows, cells(schema, f))
		}
		table(doc, t)
	}

	if len(plan.Update) > 0 {
		doc.H2("Update")
		t := md.TableSet{Header: append([]string{"recordId"}, schema.Fields...)}
		for _, u := range plan.Update {
			t.Rows = append(t.Rows, append([]string{u.RecordID}, cells(schema, u.Fields)...))
		}
		table(doc, t)
	}

	if len(plan.Delete) > 0 {
		doc.H2("Delete")
		doc.BulletList(plan.Delete...)
	}
	return doc.String()
}

// Summary renders the outcome of a sync.
func Summary(s vika.Summary) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Sync Summary")
	table(doc, counts("Synced", s.Created, s.Updated, s.Deleted))

	if len(s.Errors) > 0 {
		doc.H2("Errors")
		var errs []string
		for _, err := range s.Errors {
			errs = append(errs, err.Error())
		}
		doc.BulletList(errs...)
	}
	return doc.String()
}

func counts(title string, created, updated, deleted int) md.TableSet {
	return md.TableSet{
		Header:    []string{title, "Rows"},
		Rows: [][]string{
			{"Created", strconv.Itoa(created)},
			{"Updated", strconv.Itoa(updated)},
			{"Deleted", strconv.Itoa(deleted)},
		},
	}
}

func cells(schema vika.Schema, f vika.Fields) []string {
	row := make([]string, len(schema.Fields))
	for i, name := range schema.Fields {
		if v, ok := f[name]; ok && v != nil {
			row[i] = fmt.Sprint(v)
		}
	}
	return row
}
