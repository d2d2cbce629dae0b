package market

import (
	"fmt"
	"sort"
	"time"
)

type Response struct {
	FrancePowerExchanges []struct {
		StartDate   string `json:"start_date"`
		EndDate     string `json:"end_date"`
		UpdatedDate string `json:"updated_date"`
		Values      []struct {
			StartDate string  `json:"start_date"`
			EndDate   string  `json:"end_date"`
			Value     float64 `json:"value"`
			Price     float64 `json:"price"`
		} `json:"values"`
	} `json:"france_power_exchanges"`
}

// PricePoint is one exchange price starting at Start.
type PricePoint struct {
	Start time.Time
	Price float64
}

// Prices flattens every exchange into points sorted by start time.
func (r *Response) Prices() ([]PricePoint, error) {
	var out []PricePoint
	for _, exchange := range r.FrancePowerExchanges {
		for _, v := range exchange.Values {
			ts, err := time.Parse(time.RFC3339, v.StartDate)
			if err != nil {
				return nil, fmt.Errorf("failed to parse time: %w", err)
			}
			out = append(out, PricePoint{Start: ts, Price: v.Price})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}
