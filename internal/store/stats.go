package store

import (
	"fmt"

	"quantum-social/internal/signals"
)

// Stats is returned by Store.Stats and printed by the `/stats` command.
type Stats struct {
	Live        int                      `json:"live"`
	Subscribers int                      `json:"subscribers"`
	ByCategory  map[signals.Category]int `json:"by_category"`
	ByKind      map[signals.Kind]int     `json:"by_kind"`
}

func (s Stats) String() string {
	return fmt.Sprintf("live=%d ephemeral=%d wishnet=%d subscribers=%d",
		s.Live, s.ByCategory[signals.Ephemeral], s.ByCategory[signals.WishNet], s.Subscribers)
}
