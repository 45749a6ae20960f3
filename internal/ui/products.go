package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"

	"github.com/five82/netmoya/internal/catalog"
)

func productColumns(width int) []table.Column {
	const (
		idW    = 10
		priceW = 14
		stockW = 7
	)
	rest := width - idW - priceW - stockW - 8
	if rest < 20 {
		rest = 20
	}
	nameW := rest * 2 / 3
	return []table.Column{
		{Title: "ID", Width: idW},
		{Title: "Name", Width: nameW},
		{Title: "Category", Width: rest - nameW},
		{Title: "Price", Width: priceW},
		{Title: "Stock", Width: stockW},
	}
}

func productRows(products []catalog.Product) []table.Row {
	rows := make([]table.Row, 0, len(products))
	for _, p := range products {
		rows = append(rows, table.Row{
			p.ID,
			p.Name,
			p.Category,
			formatPrice(p.Price, p.Currency),
			strconv.Itoa(p.StockQuantity),
		})
	}
	return rows
}

func formatPrice(price float64, currency string) string {
	return strings.TrimSpace(fmt.Sprintf("%.2f %s", price, currency))
}

func (m *Model) updateProductTable() {
	m.products.SetRows(productRows(m.snapshot.Products.Products))
	if n := len(m.snapshot.Products.Products); n > 0 && m.products.Cursor() >= n {
		m.products.SetCursor(n - 1)
	}
}

func (m Model) renderProducts() string {
	styles := m.theme.Styles()
	if !m.hasSnapshot || (!m.snapshot.HasProducts && m.snapshot.LastError == nil) {
		return styles.Pane.Render(m.spinner.View() + " " + styles.MutedText.Render("loading products"))
	}
	if len(m.snapshot.Products.Products) == 0 {
		return styles.Pane.Render(styles.MutedText.Render("no products"))
	}

	page := m.snapshot.Products
	summary := styles.FaintText.Render(fmt.Sprintf("page %d/%d  %d total", page.Page, max(page.TotalPages, 1), page.Total))
	return styles.Pane.Render(m.products.View() + "\n" + summary)
}
