package docstore

import (
	"strings"
)

// CompareDocs orders a and b by the given sort keys and then by document id,
// which makes the order total. Missing or incomparable values sort first.
func CompareDocs(a, b *Document, orders []Order) int {
	for _, o := range orders {
		av, _ := a.Value(o.Field)
		bv, _ := b.Value(o.Field)
		c := compareForSort(av, bv)
		if o.Direction == Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	c := strings.Compare(a.ID, b.ID)
	if len(orders) > 0 && orders[len(orders)-1].Direction == Desc {
		c = -c
	}
	return c
}

func compareForSort(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	c, _ := Compare(a, b)
	return c
}
