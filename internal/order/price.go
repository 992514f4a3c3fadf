package order

// TotalPrice sums unit price times count over the top-level lines.
// Discounts are not subtracted.
func TotalPrice(o *Order) int {
	total := 0
	for _, item := range o.Items {
		total += item.UnitPrice() * item.Count
	}
	return total
}
