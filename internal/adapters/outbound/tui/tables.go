package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bambumate/bambumate/internal/domain"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// DefectRow is one line of the defect catalogue.
type DefectRow struct {
	Type  string
	Info  domain.DefectInfo
	Rules int
}

// RenderDefects renders the defect catalogue as a table.
func RenderDefects(rows []DefectRow) string {
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{r.Type, r.Info.Name, fmt.Sprintf("%d", r.Rules)})
	}
	return renderTable([]string{"DEFECT", "NAME", "RULES"}, data, []columnAlignment{alignLeft, alignLeft, alignRight})
}

// RenderRules renders the rules for one defect type as a table.
func RenderRules(defect string, info domain.DefectInfo, rules []domain.Rule) string {
	var b strings.Builder
	name := info.Name
	if name == "" {
		name = defect
	}
	b.WriteString(titleStyle.Render(name) + "\n")
	if info.Description != "" {
		b.WriteString(dimStyle.Render(info.Description) + "\n")
	}
	b.WriteString("\n")

	var data [][]string
	for _, r := range rules {
		gate := "always"
		if r.SeverityMin != nil {
			gate = fmt.Sprintf("≥ %s", domain.FormatNumber(*r.SeverityMin))
		}
		for _, a := range r.Adjustments {
			data = append(data, []string{
				fmt.Sprintf("%d", a.Priority),
				a.Parameter,
				string(a.Operation),
				formatWithUnit(a.Amount, a.Unit),
				gate,
			})
		}
	}
	b.WriteString(renderTable(
		[]string{"PRIORITY", "PARAMETER", "OPERATION", "AMOUNT", "SEVERITY"},
		data,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	))
	b.WriteString("\n")
	return b.String()
}

// RenderHistory renders recorded analyses as a table.
func RenderHistory(entries []domain.AnalysisEntry) string {
	data := make([][]string, 0, len(entries))
	for _, e := range entries {
		defects := make([]string, 0, len(e.Defects))
		for _, d := range e.Defects {
			defects = append(defects, d.Type)
		}
		data = append(data, []string{
			e.ID,
			e.CreatedAt.Local().Format(time.DateTime),
			e.ProfileName,
			e.Material,
			strings.Join(defects, ", "),
			fmt.Sprintf("%d", len(e.Result.Recommendations)),
		})
	}
	return renderTable(
		[]string{"ID", "WHEN", "PROFILE", "MATERIAL", "DEFECTS", "RECS"},
		data,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
}
