package checkout

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/devansh-07/Sure-Shop/internal/models"
)

// MinorUnits converts a decimal price to integer minor currency units
// (10.00 -> 1000), rounding half away from zero. Decimal arithmetic only;
// displayed totals and charged amounts must never drift.
func MinorUnits(price decimal.Decimal) int64 {
	return price.Shift(2).Round(0).IntPart()
}

func (b *Broker) sessionForm(order *models.Order) url.Values {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", b.successURL)
	form.Set("cancel_url", b.cancelURL)
	form.Set("payment_method_types[0]", "card")
	form.Set("metadata[order_id]", strconv.FormatInt(order.ID, 10))

	for i := range order.Lines {
		line := &order.Lines[i]
		prefix := fmt.Sprintf("line_items[%d]", i)

		form.Set(prefix+"[price_data][currency]", b.currency)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(MinorUnits(line.Item.EffectivePrice()), 10))
		form.Set(prefix+"[price_data][product_data][name]", line.Item.Name)
		form.Set(prefix+"[quantity]", strconv.Itoa(line.Quantity))
	}

	return form
}
