package service

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	ProductCoins100            = "COINS_100"
	ProductCoins250            = "COINS_250"
	ProductCoins500            = "COINS_500"
	ProductSubscriptionMonthly = "SUBSCRIPTION_MONTHLY"
	ProductSubscriptionYearly  = "SUBSCRIPTION_YEARLY"

	Currency = "EUR"
)

// Product is a shop item. Exactly one of Coins or Months is set.
type Product struct {
	Type       string
	Name       string
	PriceCents int64
	Coins      int
	Months     int
}

// Price is the euro amount, e.g. 2.99 for 299 cents.
func (p Product) Price() decimal.Decimal {
	return decimal.New(p.PriceCents, -2)
}

func (p Product) IsSubscription() bool {
	return p.Months > 0
}

var products = map[string]Product{
	ProductCoins100:            {Type: ProductCoins100, Name: "100 Coin Pack", PriceCents: 299, Coins: 100},
	ProductCoins250:            {Type: ProductCoins250, Name: "250 Coin Pack", PriceCents: 699, Coins: 250},
	ProductCoins500:            {Type: ProductCoins500, Name: "500 Coin Pack", PriceCents: 1299, Coins: 500},
	ProductSubscriptionMonthly: {Type: ProductSubscriptionMonthly, Name: "Monthly Subscription", PriceCents: 800, Months: 1},
	ProductSubscriptionYearly:  {Type: ProductSubscriptionYearly, Name: "Yearly Subscription", PriceCents: 7900, Months: 12},
}

// FindProduct looks a product up by type, ignoring case.
func FindProduct(productType string) (Product, bool) {
	p, ok := products[strings.ToUpper(strings.TrimSpace(productType))]
	return p, ok
}

// Products lists the catalog, coin packs first, cheapest first.
func Products() []Product {
	list := make([]Product, 0, len(products))
	for _, p := range products {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].IsSubscription() != list[j].IsSubscription() {
			return !list[i].IsSubscription()
		}
		return list[i].PriceCents < list[j].PriceCents
	})
	return list
}
