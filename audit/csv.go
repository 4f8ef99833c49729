package audit

import (
	"io"
	"strings"
)

// CSVHeader is the header row of an audit export.
var CSVHeader = []string{
	"Date",
	"Entity Type",
	"Entity Name",
	"User Tier",
	"Action",
	"Old Permission",
	"New Permission",
	"Changed By",
	"Reason",
}

// CSVTimeLayout formats the Date column.
const CSVTimeLayout = "2006-01-02 15:04:05"

// Row returns the export row of e. A missing old value is rendered "None".
func Row(e *Entry) []string {
	oldPerm := "None"
	if e.OldPermission != nil && *e.OldPermission != "" {
		oldPerm = string(*e.OldPermission)
	}
	newPerm := ""
	if e.NewPermission != nil {
		newPerm = string(*e.NewPermission)
	}
	return []string{
		e.CreatedAt.UTC().Format(CSVTimeLayout),
		string(e.EntityType),
		e.EntityName,
		string(e.Tier),
		string(e.Action),
		oldPerm,
		newPerm,
		e.ChangedByName,
		e.Reason,
	}
}

// ExportCSV renders entries as comma-separated rows under CSVHeader. Every
// field is double-quoted and rows are joined with a bare newline.
func ExportCSV(entries []*Entry) string {
	var b strings.Builder
	writeRow(&b, CSVHeader)
	for _, e := range entries {
		b.WriteByte('\n')
		writeRow(&b, Row(e))
	}
	return b.String()
}

// WriteCSV writes ExportCSV(entries) to w.
func WriteCSV(w io.Writer, entries []*Entry) error {
	_, err := io.WriteString(w, ExportCSV(entries))
	return err
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
}
