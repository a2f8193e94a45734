package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"cartmate/backend/models"
)

// AccessibleList pairs a list with the requester's resolved role on it.
type AccessibleList struct {
	List *models.ShoppingList
	Role models.Role
}

// ListSummary is the dashboard card view of one list.
type ListSummary struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Pinned       bool        `json:"pinned"`
	Shared       bool        `json:"shared"`
	ItemCount    int         `json:"itemCount"`
	Total        float64     `json:"total"`
	Role         models.Role `json:"role"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	UpdatedLabel string      `json:"updatedLabel"`
}

// ListGroup is one named dashboard section.
type ListGroup struct {
	Label string        `json:"label"`
	Lists []ListSummary `json:"lists"`
}

const (
	groupPinned = "Pinned"
	groupToday  = "Today"
)

var recentGroups = []string{"Today", "Yesterday", "Previous 7 Days", "Previous 30 Days"}

// RelativeTimeGroup buckets an update time relative to now: Today, Yesterday,
// Previous 7 Days, Previous 30 Days, the month name within the current
// calendar year, or the four-digit year.
func RelativeTimeGroup(updatedAt, now time.Time) string {
	diffDays := int(now.Sub(updatedAt).Hours() / 24)

	switch {
	case diffDays == 0:
		return "Today"
	case diffDays == 1:
		return "Yesterday"
	case diffDays < 7:
		return "Previous 7 Days"
	case diffDays < 30:
		return "Previous 30 Days"
	}

	if updatedAt.Year() == now.Year() {
		return updatedAt.Month().String()
	}
	return strconv.Itoa(updatedAt.Year())
}

// RelativeTimeString is the per-card timestamp label: Today, Yesterday, the
// weekday within the last week, or a short date.
func RelativeTimeString(updatedAt, now time.Time) string {
	diffDays := int(now.Sub(updatedAt).Hours() / 24)

	switch {
	case diffDays == 0:
		return "Today"
	case diffDays == 1:
		return "Yesterday"
	case diffDays < 7:
		return updatedAt.Weekday().String()
	}
	return fmt.Sprintf("%d/%d/%02d", int(updatedAt.Month()), updatedAt.Day(), updatedAt.Year()%100)
}

// GroupLists sorts the accessible lists by recency, partitions them into
// display groups (pinned lists always under Pinned, regardless of recency),
// orders the groups, and applies the search filter per group. Groups left
// empty by the filter are dropped. Every list lands in exactly one group.
func GroupLists(lists []AccessibleList, search string, now time.Time) []ListGroup {
	sorted := make([]AccessibleList, len(lists))
	copy(sorted, lists)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].List.UpdatedAt.After(sorted[j].List.UpdatedAt)
	})

	grouped := map[string][]ListSummary{}
	for _, al := range sorted {
		label := groupPinned
		if !al.List.Pinned {
			label = RelativeTimeGroup(al.List.UpdatedAt, now)
		}
		grouped[label] = append(grouped[label], summarize(al, now))
	}

	labels := make([]string, 0, len(grouped))
	for label := range grouped {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		return groupLess(labels[i], labels[j])
	})

	needle := strings.ToLower(search)
	var out []ListGroup
	for _, label := range labels {
		var kept []ListSummary
		for _, s := range grouped[label] {
			if needle == "" ||
				strings.Contains(strings.ToLower(s.Name), needle) ||
				strings.Contains(strings.ToLower(s.Description), needle) {
				kept = append(kept, s)
			}
		}
		if len(kept) > 0 {
			out = append(out, ListGroup{Label: label, Lists: kept})
		}
	}
	return out
}

func summarize(al AccessibleList, now time.Time) ListSummary {
	return ListSummary{
		ID:           al.List.ID,
		Name:         al.List.Name,
		Description:  al.List.Description,
		Pinned:       al.List.Pinned,
		Shared:       IsShared(al.List),
		ItemCount:    len(al.List.Items),
		Total:        ListTotal(al.List),
		Role:         al.Role,
		UpdatedAt:    al.List.UpdatedAt,
		UpdatedLabel: RelativeTimeString(al.List.UpdatedAt, now),
	}
}

// groupLess orders group labels: Pinned first, then the fixed recency groups,
// then month names in reverse calendar order, then years descending.
func groupLess(a, b string) bool {
	if a == groupPinned {
		return true
	}
	if b == groupPinned {
		return false
	}

	ai, bi := indexOf(recentGroups, a), indexOf(recentGroups, b)
	if ai != -1 && bi != -1 {
		return ai < bi
	}
	if ai != -1 {
		return true
	}
	if bi != -1 {
		return false
	}

	am, bm := monthIndex(a), monthIndex(b)
	if am != -1 && bm != -1 {
		return am > bm // December before November
	}
	if am != -1 {
		return true
	}
	if bm != -1 {
		return false
	}

	ay, _ := strconv.Atoi(a)
	by, _ := strconv.Atoi(b)
	return ay > by
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func monthIndex(s string) int {
	for m := time.January; m <= time.December; m++ {
		if m.String() == s {
			return int(m)
		}
	}
	return -1
}
