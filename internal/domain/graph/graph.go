// Package graph reconstructs a vendor's behavioral path from stored events.
package graph

import (
	"fmt"
	"sort"

	"github.com/Gaganvinay/vendortrail/internal/domain/model"
	"github.com/Gaganvinay/vendortrail/internal/domain/types"
)

// Reconstruct converts an event history into a deduplicated node list and a
// chronological chain of edges: edge i connects event i-1 to event i.
// Repeated event types stay as distinct nodes and parallel edges are never
// aggregated here; a consuming view may collapse them for display.
//
// Events are sorted ascending by timestamp defensively, since the store may
// return either order depending on the query.
func Reconstruct(events []model.Event) ([]types.Node, []types.Edge) {
	nodes := make([]types.Node, 0, len(events))
	edges := make([]types.Edge, 0)
	if len(events) == 0 {
		return nodes, edges
	}

	ordered := make([]model.Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	seen := make(map[string]struct{}, len(ordered))
	for i, e := range ordered {
		// First occurrence wins; later duplicate ids are dropped, not merged.
		if _, dup := seen[e.ID]; !dup {
			seen[e.ID] = struct{}{}
			nodes = append(nodes, types.Node{
				ID:        e.ID,
				Label:     e.EventType,
				Timestamp: e.Timestamp,
			})
		}
		if i > 0 {
			edges = append(edges, types.Edge{
				ID:     EdgeID(ordered[i-1].ID, e.ID, i),
				Source: ordered[i-1].ID,
				Target: e.ID,
			})
		}
	}
	return nodes, edges
}

// EdgeID derives a deterministic edge identifier from the endpoints and the
// edge's ordinal position, so re-rendering the same history produces the
// same ids.
func EdgeID(source, target string, ordinal int) string {
	return fmt.Sprintf("%s->%s#%d", source, target, ordinal)
}
