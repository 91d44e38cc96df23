package pairsource

import (
	"context"

	"waybackfill/internal/slugpair"
)

// Source supplies slug pairs in processing order.
type Source interface {
	Pairs(ctx context.Context) ([]slugpair.Pair, error)
}

// Static is a Source backed by a fixed list.
type Static []slugpair.Pair

var _ Source = Static(nil)

// Pairs returns a copy of the list.
func (s Static) Pairs(ctx context.Context) ([]slugpair.Pair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]slugpair.Pair, len(s))
	copy(out, s)
	return out, nil
}

// Distinct drops repeated pairs, keeping the first occurrence of each.
func Distinct(pairs []slugpair.Pair) []slugpair.Pair {
	seen := make(map[slugpair.Pair]struct{}, len(pairs))
	out := make([]slugpair.Pair, 0, len(pairs))
	for _, p := range pairs {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
