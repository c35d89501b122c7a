package deal

// ProductMix returns the deal's attached products and their profits, in the
// fixed product enumeration order. Only products with profit strictly
// greater than zero appear; zero and negative entries never do.
func ProductMix(d Deal) []ProductProfit {
	mix := make([]ProductProfit, 0, len(productOrder))
	for _, product := range productOrder {
		if profit := d.ProductProfits[product]; profit > 0 {
			mix = append(mix, ProductProfit{Name: product, Profit: profit})
		}
	}
	return mix
}

// ProductsPerDeal returns the number of attached products on a deal.
func ProductsPerDeal(d Deal) int {
	return len(ProductMix(d))
}
