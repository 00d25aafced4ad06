package email

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/storefront/internal/order"
)

// BuildOrderConfirmationBody builds the HTML body for an order confirmation
// email from the order's item snapshot.
func BuildOrderConfirmationBody(o *order.Order) string {
	ids := make([]string, 0, len(o.Items))
	for id := range o.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var itemsHTML strings.Builder
	for _, id := range ids {
		item := o.Items[id]
		title := item.Product.Title
		if title == "" {
			title = id
		}
		itemsHTML.WriteString(fmt.Sprintf(
			`<tr>
				<td style="padding: 12px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">$%.2f</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">$%.2f</td>
			</tr>`,
			title,
			item.Quantity,
			item.Product.Price,
			item.Product.Price*float64(item.Quantity),
		))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: sans-serif; color: #333; max-width: 600px; margin: 0 auto;">
	<h2>Thank you for your order, %s!</h2>
	<p>Your order <strong>%s</strong> has been placed.</p>
	<table style="width: 100%%; border-collapse: collapse;">
		<thead>
			<tr style="background: #f8f8f8;">
				<th style="padding: 12px; text-align: left;">Item</th>
				<th style="padding: 12px; text-align: center;">Qty</th>
				<th style="padding: 12px; text-align: right;">Price</th>
				<th style="padding: 12px; text-align: right;">Subtotal</th>
			</tr>
		</thead>
		<tbody>%s</tbody>
		<tfoot>
			<tr>
				<td colspan="3" style="padding: 12px; text-align: right; font-weight: bold;">Total</td>
				<td style="padding: 12px; text-align: right; font-weight: bold;">$%.2f</td>
			</tr>
		</tfoot>
	</table>
	<p style="color: #888; font-size: 13px;">Shipping to: %s, %s, %s %s</p>
</body>
</html>`,
		o.ShippingInfo.Name,
		o.ID,
		itemsHTML.String(),
		o.Total,
		o.ShippingInfo.Name,
		o.ShippingInfo.Address,
		o.ShippingInfo.City,
		o.ShippingInfo.PostalCode,
	)
}
