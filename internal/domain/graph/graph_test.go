package graph_test

import (
	"testing"
	"time"

	"github.com/Gaganvinay/vendortrail/internal/domain/graph"
	"github.com/Gaganvinay/vendortrail/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func history(n int) []model.Event {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	events := make([]model.Event, n)
	for i := range events {
		events[i] = model.Event{
			ID:        "e" + string(rune('0'+i)),
			VendorID:  "V1",
			EventType: "click",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return events
}

func TestReconstruct(t *testing.T) {
	Convey("Given n ordered events", t, func() {
		events := history(4)
		nodes, edges := graph.Reconstruct(events)

		Convey("Then there should be n nodes and n-1 edges", func() {
			So(nodes, ShouldHaveLength, 4)
			So(edges, ShouldHaveLength, 3)
		})

		Convey("And every edge should connect chronological neighbours", func() {
			for i, e := range edges {
				So(e.Source, ShouldEqual, events[i].ID)
				So(e.Target, ShouldEqual, events[i+1].ID)
			}
		})

		Convey("And node labels should carry the event types", func() {
			So(nodes[0].Label, ShouldEqual, "click")
		})
	})

	Convey("Given zero events", t, func() {
		nodes, edges := graph.Reconstruct(nil)

		Convey("Then both lists should be empty but non-nil", func() {
			So(nodes, ShouldNotBeNil)
			So(edges, ShouldNotBeNil)
			So(nodes, ShouldBeEmpty)
			So(edges, ShouldBeEmpty)
		})
	})

	Convey("Given exactly one event", t, func() {
		nodes, edges := graph.Reconstruct(history(1))

		Convey("Then there should be one node and no edges", func() {
			So(nodes, ShouldHaveLength, 1)
			So(edges, ShouldBeEmpty)
		})
	})

	Convey("Given unsorted input", t, func() {
		events := history(3)
		shuffled := []model.Event{events[2], events[0], events[1]}
		nodes, edges := graph.Reconstruct(shuffled)

		Convey("Then the chain should follow timestamps, not input order", func() {
			So(nodes[0].ID, ShouldEqual, events[0].ID)
			So(edges[0].Source, ShouldEqual, events[0].ID)
			So(edges[0].Target, ShouldEqual, events[1].ID)
			So(edges[1].Target, ShouldEqual, events[2].ID)
		})
	})

	Convey("Given duplicate event ids", t, func() {
		events := history(3)
		events[2].ID = events[0].ID
		events[2].EventType = "purchase"
		nodes, edges := graph.Reconstruct(events)

		Convey("Then the first occurrence should win and the duplicate be dropped", func() {
			So(nodes, ShouldHaveLength, 2)
			So(nodes[0].Label, ShouldEqual, "click")
		})

		Convey("And edges should still span every chronological step", func() {
			So(edges, ShouldHaveLength, 2)
		})
	})

	Convey("Given repeated event types", t, func() {
		events := history(3)
		nodes, edges := graph.Reconstruct(events)

		Convey("Then nodes should not collapse by type", func() {
			So(nodes, ShouldHaveLength, 3)
			So(edges, ShouldHaveLength, 2)
		})
	})
}

func TestEdgeID(t *testing.T) {
	Convey("Given the same endpoints and ordinal", t, func() {
		Convey("Then the derived id should be stable", func() {
			So(graph.EdgeID("a", "b", 1), ShouldEqual, graph.EdgeID("a", "b", 1))
		})

		Convey("And a different ordinal should yield a different id", func() {
			So(graph.EdgeID("a", "b", 1), ShouldNotEqual, graph.EdgeID("a", "b", 2))
		})
	})
}
