// Package aggregation turns the stored collection of donation points into the
// needs ranking and statistics views.
//
// Both computations are pure: each call builds its own counters, so they are
// safe for concurrent use and deterministic for a given input order.
package aggregation

import (
	"fmt"
	"strconv"

	"github.com/ZanzyTHEbar/pontos-doacao/internal/encoding"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/types"
)

// NeedRanking is one row of the needs ranking
type NeedRanking struct {
	Item  string `json:"item"`
	Total int    `json:"total"`
}

// Count is a (key, count) pair, encoded as a two element JSON array
type Count struct {
	Key   string
	Count int
}

// MarshalJSON encodes the pair as [key, count]
func (c Count) MarshalJSON() ([]byte, error) {
	key, err := encoding.MarshalJSON(c.Key)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, len(key)+16)
	buf = append(buf, '[')
	buf = append(buf, key...)
	buf = append(buf, ',')
	buf = strconv.AppendInt(buf, int64(c.Count), 10)
	buf = append(buf, ']')
	return buf, nil
}

// UnmarshalJSON decodes a [key, count] pair
func (c *Count) UnmarshalJSON(data []byte) error {
	var pair []encoding.RawMessage
	if err := encoding.UnmarshalJSON(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("count pair must have 2 elements, got %d", len(pair))
	}
	if err := encoding.UnmarshalJSON(pair[0], &c.Key); err != nil {
		return fmt.Errorf("invalid count key: %w", err)
	}
	if err := encoding.UnmarshalJSON(pair[1], &c.Count); err != nil {
		return fmt.Errorf("invalid count value: %w", err)
	}
	return nil
}

// StatisticsSummary is the aggregate view over every stored point
type StatisticsSummary struct {
	TotalPoints         int      `json:"totalPontos"`
	TotalCities         int      `json:"totalCidades"`
	CommonDonationTypes []Count  `json:"tiposMaisComuns"`
	UrgentItemRanking   []Count  `json:"itensMaisUrgentes"`
	Cities              []string `json:"cidades"`
}

// ComputeNeedsRanking counts urgent items across all points, most needed first
func ComputeNeedsRanking(points []types.DonationPoint) []NeedRanking {
	items := newCounter()
	for i := range points {
		items.addAll(points[i].UrgentItems)
	}

	ranked := items.ranked()
	out := make([]NeedRanking, 0, len(ranked))
	for _, c := range ranked {
		out = append(out, NeedRanking{Item: c.Key, Total: c.Count})
	}
	return out
}

// ComputeStatistics summarises points in a single pass
func ComputeStatistics(points []types.DonationPoint) StatisticsSummary {
	cities := newOrderedSet()
	donationTypes := newCounter()
	urgentItems := newCounter()

	for i := range points {
		cities.add(points[i].City)
		donationTypes.addAll(points[i].DonationTypes)
		urgentItems.addAll(points[i].UrgentItems)
	}

	return StatisticsSummary{
		TotalPoints:         len(points),
		TotalCities:         len(cities.items),
		CommonDonationTypes: donationTypes.ranked(),
		UrgentItemRanking:   urgentItems.ranked(),
		Cities:              cities.items,
	}
}
