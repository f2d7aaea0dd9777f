package telegram

import (
	"fmt"
	"html"
	"strings"
	"time"

	"golang-backtest/pkg/utils"
)

// FormatTable renders rows as a fixed width table inside a <pre> block.
// Cells are HTML escaped.
func FormatTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var builder strings.Builder
	writeRow := func(cells []string) {
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			if i > 0 {
				builder.WriteString(" ")
			}
			builder.WriteString(html.EscapeString(fmt.Sprintf("%-*s", widths[i], cell)))
		}
		builder.WriteString("\n")
	}

	builder.WriteString("<pre>\n")
	writeRow(headers)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range rows {
		writeRow(row)
	}
	builder.WriteString("</pre>")
	return builder.String()
}

// FormatSection renders a bold title followed by body, or by emptyText when
// there are no rows.
func FormatSection(title string, headers []string, rows [][]string, emptyText string) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("<b>%s</b>\n", html.EscapeString(title)))
	if len(rows) == 0 {
		builder.WriteString(html.EscapeString(emptyText))
		return builder.String()
	}
	builder.WriteString(FormatTable(headers, rows))
	return builder.String()
}

func FormatErrorAlertMessage(t time.Time, errType string, errMsg string, data string) string {
	return fmt.Sprintf(`📛 <b>[ERROR ALERT]</b>
%s
🔧 %s
⚠️ %s

📄 Data: %s
`, utils.PrettyDate(t), html.EscapeString(errType), html.EscapeString(errMsg), html.EscapeString(data))
}
