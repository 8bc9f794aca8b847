package output

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dhabedank/stageprompt/internal/core"
	"github.com/dhabedank/stageprompt/internal/tui"
)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// TableAdapter prints a terminal table of prompt titles.
type TableAdapter struct{}

// NewTableAdapter creates a table adapter.
func NewTableAdapter() *TableAdapter {
	return &TableAdapter{}
}

func (a *TableAdapter) Name() string {
	return "table"
}

func (a *TableAdapter) IsAvailable() (bool, error) {
	return true, nil
}

func (a *TableAdapter) Export(records []core.PromptRecord, config Config) (*ExportResult, error) {
	fmt.Fprintln(config.writer(), RenderTable(records))
	return listResult(records, func(r core.PromptRecord) string {
		return strconv.Itoa(r.GlobalPromptNumber)
	}), nil
}

// RenderTable renders one row per record: global number, stage, version,
// category and title.
func RenderTable(records []core.PromptRecord) string {
	var categories []core.Category
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "STAGE", "VER", "CATEGORY", "TITLE").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tui.TableHeaderStyle
			case col == 3 && row >= 0 && row < len(categories):
				return tui.CategoryStyle(categories[row]).Inherit(cellStyle)
			default:
				return cellStyle
			}
		})

	for _, g := range groupByStage(records) {
		for _, r := range g.Records {
			categories = append(categories, r.Category)
			t.Row(
				strconv.Itoa(r.GlobalPromptNumber),
				fmt.Sprintf("%d %s", g.Stage, g.Title),
				strconv.Itoa(r.Version),
				string(r.Category),
				r.Title,
			)
		}
	}
	return t.String()
}
