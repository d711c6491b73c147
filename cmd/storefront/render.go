package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	appcart "github.com/abarrotes/storefront/internal/application/cart"
	"github.com/abarrotes/storefront/internal/application/checkout"
	"github.com/abarrotes/storefront/internal/domain/cart"
	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/history"
	"github.com/abarrotes/storefront/internal/domain/shared/valueobject"
)

// printer renders command output as tables
type printer struct {
	w   io.Writer
	env *environment
}

func newPrinter(env *environment, w io.Writer) *printer {
	return &printer{w: w, env: env}
}

func (p *printer) money(d decimal.Decimal) string {
	return valueobject.NewMoneyPEN(d).Format(p.env.lang)
}

func (p *printer) table(rightAligned ...int) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.w)
	t.SetStyle(table.StyleLight)
	configs := make([]table.ColumnConfig, 0, len(rightAligned))
	for _, n := range rightAligned {
		configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignFooter: text.AlignRight})
	}
	t.SetColumnConfigs(configs)
	return t
}

func (p *printer) shops(tenants []catalog.TenantID) {
	t := p.table()
	t.AppendHeader(table.Row{"ID", "Store"})
	for _, tenant := range tenants {
		t.AppendRow(table.Row{tenant, tenant.DisplayName()})
	}
	t.Render()
}

// products prints a product list with the stock a shopper can still take
func (p *printer) products(products []catalog.Product, displayStock func(string) int) {
	t := p.table(3, 4)
	t.AppendHeader(table.Row{"ID", "Product", "Price", "Stock", "Category"})
	for _, product := range products {
		stock := displayStock(product.ID)
		label := fmt.Sprint(stock)
		if stock == 0 {
			label = "sold out"
		}
		t.AppendRow(table.Row{product.ID, product.Name, p.money(product.Price), label, product.Category})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d products", len(products))})
	t.Render()
}

func (p *printer) cart(snap cart.Snapshot) {
	if len(snap.Items) == 0 {
		fmt.Fprintln(p.w, "The cart is empty")
		return
	}
	t := p.table(3, 4, 5)
	t.SetTitle("Cart at %s", snap.Tenant.DisplayName())
	t.AppendHeader(table.Row{"ID", "Product", "Price", "Qty", "Subtotal"})
	items := 0
	total := decimal.Zero
	for _, item := range snap.Items {
		name := item.Product.Name
		if item.Unavailable {
			name += " (unavailable)"
		}
		t.AppendRow(table.Row{item.Product.ID, name, p.money(item.Product.Price), item.Quantity, p.money(item.Subtotal())})
		items += item.Quantity
		total = total.Add(item.Subtotal())
	}
	t.AppendFooter(table.Row{"", "", "Total", items, p.money(total)})
	t.Render()
}

func (p *printer) stockReport(report *appcart.StockReport) {
	if !report.Changed() {
		fmt.Fprintln(p.w, "All products in your cart are available")
		return
	}
	for _, adj := range report.Adjustments {
		fmt.Fprintf(p.w, "- %s\n", adj.Message())
	}
	for _, e := range report.SyncErrors {
		fmt.Fprintf(p.w, "! %s\n", e)
	}
}

func (p *printer) receipt(r *checkout.Receipt) {
	t := p.table(2, 3, 4)
	t.SetTitle("%s - purchase %s - %s", r.ShopName, r.ID, r.Date.Format("2006-01-02 15:04"))
	t.AppendHeader(table.Row{"Product", "Qty", "Price", "Subtotal"})
	for _, l := range r.Lines {
		t.AppendRow(table.Row{l.Name, l.Quantity, p.money(l.UnitPrice.Amount()), p.money(l.Subtotal.Amount())})
	}
	t.AppendFooter(table.Row{"Total", r.TotalItems, "", p.money(r.Total.Amount())})
	t.Render()
}

func (p *printer) purchases(records []history.Record) {
	if len(records) == 0 {
		fmt.Fprintln(p.w, "No purchases yet")
		return
	}
	t := p.table(4, 5)
	t.AppendHeader(table.Row{"Date", "Store", "Purchase", "Items", "Total"})
	for _, r := range records {
		date := "-"
		if !r.Date.IsZero() {
			date = r.Date.Format("2006-01-02 15:04")
		}
		t.AppendRow(table.Row{date, r.ShopName(), r.ID, r.ItemCount(), p.money(r.TotalOrComputed())})
	}
	t.Render()
}
