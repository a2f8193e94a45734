package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"cartmate/backend/models"
	"cartmate/backend/store"
)

var monthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// SpendingSummary is the rollup of a user's purchases for the current year,
// with a parallel series of that year's monthly budgets.
type SpendingSummary struct {
	Labels          []string  `json:"labels"`
	Spending        []float64 `json:"spending"`
	Budgets         []float64 `json:"budgets"`
	MonthlySpending float64   `json:"monthlySpending"`
	YearlySpending  float64   `json:"yearlySpending"`
	MonthlyBudget   float64   `json:"monthlyBudget"`
}

// SpendingReport aggregates purchased items across every list the user owns
// or edits into monthly buckets. Viewer-only lists carry no spending. Lists
// whose updatedAt predates Jan 1 are excluded even when they hold purchases
// from this year; the window reuses the recency filter on purpose.
func SpendingReport(ctx context.Context, userID string, now time.Time) (*SpendingSummary, error) {
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())

	var owned, edited []store.Document
	var user *models.User

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		owned, err = store.Docs.Query(gctx, models.ListsCollection, []store.Filter{
			{Path: "owner", Op: "==", Value: userID},
			{Path: "updatedAt", Op: ">=", Value: yearStart},
		})
		return err
	})
	g.Go(func() error {
		var err error
		edited, err = store.Docs.Query(gctx, models.ListsCollection, []store.Filter{
			{Path: "editors", Op: "array-contains", Value: userID},
			{Path: "updatedAt", Op: ">=", Value: yearStart},
		})
		return err
	})
	g.Go(func() error {
		doc, err := store.Docs.Get(gctx, models.UsersCollection, userID)
		if err != nil {
			return err
		}
		user, err = models.UserFromDoc(doc)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch spending data: %w", err)
	}

	var buckets [12]float64
	yearTotal := 0.0
	for _, docs := range [][]store.Document{owned, edited} {
		for _, doc := range docs {
			list, err := models.ListFromDoc(doc)
			if err != nil {
				return nil, err
			}
			for _, item := range list.Items {
				if !item.Purchased || item.PurchaseDate == nil {
					continue
				}
				month := int(item.PurchaseDate.In(now.Location()).Month()) - 1
				cost := LineTotal(item)
				buckets[month] += cost
				yearTotal += cost
			}
		}
	}

	budgets := make([]float64, 12)
	for i := 0; i < 12; i++ {
		budgets[i] = user.MonthlyBudgets[MonthKey(now.Year(), time.Month(i+1))]
	}

	return &SpendingSummary{
		Labels:          monthLabels,
		Spending:        buckets[:],
		Budgets:         budgets,
		MonthlySpending: buckets[int(now.Month())-1],
		YearlySpending:  yearTotal,
		MonthlyBudget:   user.MonthlyBudget,
	}, nil
}

// MonthKey formats a month as the "YYYY-MM" key used by the per-month budget
// mapping.
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%d-%02d", year, int(month))
}
