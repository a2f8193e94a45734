package services

import (
	"cartmate/backend/models"
)

// LineTotal is the cost of one list entry. A missing price counts as zero.
func LineTotal(item models.Item) float64 {
	price := 0.0
	if item.Price != nil {
		price = *item.Price
	}
	return price * float64(item.Amount)
}

// ListTotal sums the line totals of every item in stored order.
func ListTotal(list *models.ShoppingList) float64 {
	total := 0.0
	for _, item := range list.Items {
		total += LineTotal(item)
	}
	return total
}

// IsShared reports whether the list has any collaborators besides the owner.
func IsShared(list *models.ShoppingList) bool {
	return len(list.Editors)+len(list.Viewers) > 0
}
