package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/wicket/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		key := dedupe.DeliveryKey("m1", "i1", "d-1")

		Convey("When a delivery key is seen for the first time", func() {
			seen := d.SeenAndRecord(ctx, key)

			Convey("Then it is recorded", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then a retry of it is reported", func() {
				So(d.SeenAndRecord(ctx, key), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then the same id in another innings is distinct", func() {
				So(d.SeenAndRecord(ctx, dedupe.DeliveryKey("m1", "i2", "d-1")), ShouldBeFalse)
			})

			Convey("Then unrecording allows a retry", func() {
				d.Unrecord(ctx, key)
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, key), ShouldBeFalse)
			})
		})

		Convey("Unrecording an unknown key is a no-op", func() {
			d.Unrecord(ctx, "nope")
			So(d.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a deduper bounded to three keys", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, k := range []string{"a", "b", "c", "d"} {
			So(d.SeenAndRecord(ctx, k), ShouldBeFalse)
		}

		Convey("Then the oldest key was evicted", func() {
			So(d.Size(), ShouldEqual, 3)
			So(d.SeenAndRecord(ctx, "d"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "c"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 1000; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("k-%d", i))
		}
		So(d.Size(), ShouldEqual, 1000)
		So(d.SeenAndRecord(ctx, "k-0"), ShouldBeTrue)
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given concurrent ingest of the same deliveries", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const workers = 8
		const keys = 100

		var wg sync.WaitGroup
		var mu sync.Mutex
		fresh := 0
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for k := 0; k < keys; k++ {
					if !d.SeenAndRecord(context.Background(), fmt.Sprintf("k-%d", k)) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each key is accepted exactly once", func() {
			So(fresh, ShouldEqual, keys)
			So(d.Size(), ShouldEqual, keys)
		})
	})
}
