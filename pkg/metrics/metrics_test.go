package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			registryOpt := WithRegistry(prometheus.NewRegistry())

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(registryOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestManagerCreation(t *testing.T) {
	Convey("Given manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given metrics recording", t, func() {
		Convey("When recording admission metrics", func() {
			Convey("Then it should record admitted votes", func() {
				So(func() {
					RecordVoteAdmitted()
					RecordVoteAdmitted()
				}, ShouldNotPanic)
			})

			Convey("And it should record duplicate votes", func() {
				So(func() {
					RecordVoteDuplicate()
					RecordAdmissionError()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording refresh metrics", func() {
			Convey("Then it should record scope refreshes", func() {
				So(func() {
					RecordScopeRefresh()
					RecordRefreshError()
					RecordRefreshDuration(12.5)
					RecordStaleSnapshotServed()
				}, ShouldNotPanic)
			})

			Convey("And it should track ranked products", func() {
				So(func() {
					UpdateProductsRanked(10)
					UpdateProductsRanked(7)
					RecordMalformedMetric()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording reaper metrics", func() {
			So(func() {
				RecordReapRun()
				RecordVotesReaped(42)
				RecordReapDuration(3.2)
			}, ShouldNotPanic)
		})

		Convey("When recording store metrics", func() {
			So(func() {
				RecordStoreQueryLatency(1.5)
				RecordStoreQueryLatency(9.0)
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP metrics", func() {
			So(func() {
				RecordHTTPRequest("/healthz", "GET", "200")
				RecordHTTPRequest("/votes", "POST", "201")
				RecordHTTPRequestDuration("/votes", "POST", "201", 4.2)
				RecordHTTPError("/votes", "POST", "duplicate")
			}, ShouldNotPanic)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When fetching the registry", func() {
			registry := GetRegistry()

			Convey("Then it should not be nil", func() {
				So(registry, ShouldNotBeNil)
			})
		})
	})
}
