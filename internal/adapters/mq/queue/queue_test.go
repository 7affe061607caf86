package queue_test

import (
	"context"
	"testing"

	"github.com/Gaganvinay/vendortrail/internal/adapters/mq/queue"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue with capacity two", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		Convey("When enqueuing within capacity", func() {
			So(q.Enqueue(ctx, queue.Job{EventID: "a"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{EventID: "b"}), ShouldBeTrue)

			Convey("Then Len should report both jobs", func() {
				So(q.Len(ctx), ShouldEqual, 2)
			})

			Convey("And a third enqueue should be rejected", func() {
				So(q.Enqueue(ctx, queue.Job{EventID: "c"}), ShouldBeFalse)
			})

			Convey("And dequeue should deliver in FIFO order", func() {
				ch := q.Dequeue(ctx)
				So((<-ch).EventID, ShouldEqual, "a")
				So((<-ch).EventID, ShouldEqual, "b")
			})
		})
	})

	Convey("Given a closed queue", t, func() {
		q := queue.NewInMemoryQueue()
		So(q.Close(), ShouldBeNil)

		Convey("Then enqueues should be rejected", func() {
			So(q.Enqueue(ctx, queue.Job{EventID: "x"}), ShouldBeFalse)
		})

		Convey("And the dequeue channel should be closed", func() {
			_, open := <-q.Dequeue(ctx)
			So(open, ShouldBeFalse)
		})

		Convey("And closing again should be a no-op", func() {
			So(q.Close(), ShouldBeNil)
			So(q.IsClosed(), ShouldBeTrue)
		})
	})
}
