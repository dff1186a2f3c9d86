package ownership

import (
	"context"

	"github.com/angelmondragon/paintref-backend/pkg/db/models"
)

// Priority inputs accepted by SetDesired and ReorderWishlist.
const (
	PriorityUnranked = -1
	PriorityAppend   = 0
)

// resolvePosition maps a requested priority onto a 1-based slot among n
// other ranked entries. It returns 0 for unranked and false when the request
// is out of range.
func resolvePosition(requested, n int) (int, bool) {
	switch {
	case requested == PriorityUnranked:
		return 0, true
	case requested == PriorityAppend:
		return n + 1, true
	case requested >= 1 && requested <= n+1:
		return requested, true
	}
	return 0, false
}

// placeAt returns order with id inserted at 1-based pos.
func placeAt(order []string, id string, pos int) []string {
	if pos < 1 {
		pos = 1
	}
	if pos > len(order)+1 {
		pos = len(order) + 1
	}
	out := make([]string, 0, len(order)+1)
	out = append(out, order[:pos-1]...)
	out = append(out, id)
	out = append(out, order[pos-1:]...)
	return out
}

func without(entries []models.WishlistEntry, id string) ([]string, map[string]int) {
	order := make([]string, 0, len(entries))
	current := make(map[string]int, len(entries))
	for _, e := range entries {
		current[e.ID] = e.Priority
		if e.ID == id {
			continue
		}
		order = append(order, e.ID)
	}
	return order, current
}

// applyRanks writes 1..N to order, touching only rows whose rank changed.
func applyRanks(ctx context.Context, repo *Repository, order []string, current map[string]int) error {
	for i, id := range order {
		rank := i + 1
		if prev, ok := current[id]; ok && prev == rank {
			continue
		}
		if err := repo.SetPriority(ctx, id, rank); err != nil {
			return err
		}
	}
	return nil
}

// compact renumbers the user's active ranked entries densely from 1.
func compact(ctx context.Context, repo *Repository, userID string) error {
	ranked, err := repo.ListRanked(ctx, userID)
	if err != nil {
		return err
	}
	order, current := without(ranked, "")
	return applyRanks(ctx, repo, order, current)
}
