// Package pricing turns a list of cart lines into priced line items. It is a
// pure read projection over current prices: it never mutates anything and
// must not be used to authorize a mutation, except at the checkout instant
// where it is the source of truth for the final charge.
package pricing

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-store/internal/domain/account"
	"github.com/xenking/kart-store/internal/domain/item"
)

// Row is one priced line: the item's current name and price joined with the
// reserved amount.
type Row struct {
	ItemID    string
	ItemName  string
	ItemPrice decimal.Decimal
	Amount    int
	Subtotal  decimal.Decimal
}

// ItemList is the priced view of a cart or order snapshot.
type ItemList struct {
	Total decimal.Decimal
	Rows  []Row
}

// BuildItemList prices each line at the item's current price and accumulates
// the total. An empty input returns a zero list without touching storage.
func BuildItemList(ctx context.Context, items item.Repository, lines []account.CartLine) (ItemList, error) {
	list := ItemList{Total: decimal.Zero, Rows: []Row{}}
	if len(lines) == 0 {
		return list, nil
	}

	list.Rows = make([]Row, 0, len(lines))
	for _, line := range lines {
		it, err := items.GetByID(ctx, line.ItemID)
		if err != nil {
			return ItemList{}, errors.Wrapf(err, "price item %s", line.ItemID)
		}

		subtotal := it.Price.Mul(decimal.NewFromInt(int64(line.Amount)))
		list.Rows = append(list.Rows, Row{
			ItemID:    it.ID,
			ItemName:  it.Name,
			ItemPrice: it.Price,
			Amount:    line.Amount,
			Subtotal:  subtotal,
		})
		list.Total = list.Total.Add(subtotal)
	}

	return list, nil
}
