package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/five82/netmoya/internal/api"
	"github.com/five82/netmoya/internal/catalog"
)

// render writes v as JSON or YAML, or calls text for the default format.
func (c *cli) render(v any, text func(w io.Writer) error) error {
	if c.output == "text" || c.output == "" {
		return text(c.stdout)
	}
	return encode(c.stdout, c.output, v)
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func apiDetails(err error) (kind string, status int, ok bool) {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return "", 0, false
	}
	status, _ = apiErr.StatusCode()
	return apiErr.Kind.String(), status, true
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...)
}

func productTable(products []catalog.Product) *table.Table {
	t := newTable("ID", "NAME", "CATEGORY", "PRICE", "STOCK")
	for _, p := range products {
		t.Row(p.ID, p.Name, p.Category, fmt.Sprintf("%.2f %s", p.Price, p.Currency), strconv.Itoa(p.StockQuantity))
	}
	return t
}

func writeProductList(w io.Writer, page catalog.ProductListResponse) error {
	if len(page.Products) == 0 {
		_, err := fmt.Fprintf(w, "No products (page %d of %d)\n", page.Page, page.TotalPages)
		return err
	}
	more := ""
	if page.HasMore() {
		more = ", more available"
	}
	_, err := fmt.Fprintf(w, "%s\npage %d of %d, %d total%s\n", productTable(page.Products).Render(), page.Page, page.TotalPages, page.Total, more)
	return err
}

func writeProduct(w io.Writer, p catalog.Product) error {
	rows := [][2]string{
		{"ID", p.ID},
		{"Name", p.Name},
		{"Description", deref(p.Description)},
		{"Price", fmt.Sprintf("%.2f %s", p.Price, p.Currency)},
		{"Category", p.Category},
		{"Stock", strconv.Itoa(p.StockQuantity)},
		{"SKU", deref(p.SKU)},
		{"Image", deref(p.ImageURL)},
	}
	if p.CreatedAt != nil {
		rows = append(rows, [2]string{"Created", p.CreatedAt.Format("2006-01-02 15:04:05")})
	}
	if p.UpdatedAt != nil {
		rows = append(rows, [2]string{"Updated", p.UpdatedAt.Format("2006-01-02 15:04:05")})
	}
	label := lipgloss.NewStyle().Bold(true).Width(13)
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		if _, err := fmt.Fprintln(w, label.Render(row[0])+row[1]); err != nil {
			return err
		}
	}
	return nil
}

func writeTodos(w io.Writer, todos []catalog.Todo) error {
	t := newTable("ID", "USER", "DONE", "TITLE")
	for _, todo := range todos {
		done := " "
		if todo.Completed {
			done = "x"
		}
		t.Row(strconv.Itoa(todo.ID), strconv.Itoa(todo.UserID), done, todo.Title)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
