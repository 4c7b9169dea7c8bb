package telemetry

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/torosent/wordstress/internal/logger"
	"github.com/torosent/wordstress/internal/metrics"
)

func TestManagerOptions(t *testing.T) {
	Convey("Given a manager built with options", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(
			WithNamespace("loadtest"),
			WithHistogramBuckets([]float64{1, 10, 100}),
			WithPrometheusRegistry(registry),
		)

		Convey("Then it uses the given registry and namespace", func() {
			So(m.Registry(), ShouldEqual, registry)
			m.ObserveOutcome(metrics.Success(200, time.Millisecond, 0))
			families, err := registry.Gather()
			So(err, ShouldBeNil)
			names := make([]string, 0, len(families))
			for _, f := range families {
				names = append(names, f.GetName())
			}
			So(names, ShouldContain, "loadtest_requests_total")
			So(names, ShouldContain, "loadtest_response_time_milliseconds")
		})

		Convey("Then empty options keep defaults", func() {
			d := NewManager(WithNamespace(""), WithHistogramBuckets(nil), WithPrometheusRegistry(nil))
			So(d.namespace, ShouldEqual, "wordstress")
			So(d.histogramBuckets, ShouldResemble, DefaultBuckets)
			So(d.Registry(), ShouldNotBeNil)
		})
	})
}

func TestManagerRecording(t *testing.T) {
	Convey("Given a manager", t, func() {
		m := NewManager()

		Convey("When outcomes are observed", func() {
			m.ObserveOutcome(metrics.Success(200, 20*time.Millisecond, 100))
			m.ObserveOutcome(metrics.Success(204, 30*time.Millisecond, 50))
			m.ObserveOutcome(metrics.Success(503, 40*time.Millisecond, 0))
			m.ObserveOutcome(metrics.Failure(metrics.ErrorTimeout, "", time.Second))

			Convey("Then requests are counted per outcome", func() {
				So(testutil.ToFloat64(m.requests.WithLabelValues("2xx")), ShouldEqual, 2)
				So(testutil.ToFloat64(m.requests.WithLabelValues("5xx")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.requests.WithLabelValues("timeout")), ShouldEqual, 1)
			})

			Convey("Then bytes are summed", func() {
				So(testutil.ToFloat64(m.bytes), ShouldEqual, 150)
			})

			Convey("Then only successes feed the histogram", func() {
				So(testutil.CollectAndCount(m.responseTime), ShouldEqual, 1)
				expected := `
# HELP wordstress_response_time_milliseconds Response time of successful requests in milliseconds
# TYPE wordstress_response_time_milliseconds histogram
wordstress_response_time_milliseconds_bucket{le="5"} 0
wordstress_response_time_milliseconds_bucket{le="10"} 0
wordstress_response_time_milliseconds_bucket{le="25"} 1
wordstress_response_time_milliseconds_bucket{le="50"} 3
wordstress_response_time_milliseconds_bucket{le="100"} 3
wordstress_response_time_milliseconds_bucket{le="250"} 3
wordstress_response_time_milliseconds_bucket{le="500"} 3
wordstress_response_time_milliseconds_bucket{le="1000"} 3
wordstress_response_time_milliseconds_bucket{le="2500"} 3
wordstress_response_time_milliseconds_bucket{le="5000"} 3
wordstress_response_time_milliseconds_bucket{le="10000"} 3
wordstress_response_time_milliseconds_bucket{le="30000"} 3
wordstress_response_time_milliseconds_bucket{le="+Inf"} 3
wordstress_response_time_milliseconds_sum 90
wordstress_response_time_milliseconds_count 3
`
				err := testutil.CollectAndCompare(m.responseTime, strings.NewReader(expected))
				So(err, ShouldBeNil)
			})
		})

		Convey("When clients start and stop", func() {
			m.ClientStarted()
			m.ClientStarted()
			m.ClientStopped()

			Convey("Then the gauge tracks active clients", func() {
				So(testutil.ToFloat64(m.activeClients), ShouldEqual, 1)
			})
		})
	})
}

func TestManagerAsAggregatorObserver(t *testing.T) {
	Convey("Given an aggregator forwarding to the manager", t, func() {
		m := NewManager()
		agg := metrics.NewAggregator(metrics.WithObserver(m))

		Convey("When outcomes are recorded", func() {
			agg.RecordOutcome(metrics.Success(301, time.Millisecond, 0))
			agg.RecordOutcome(metrics.Failure(metrics.ErrorNetwork, "refused", time.Millisecond))

			Convey("Then the manager sees them", func() {
				So(testutil.ToFloat64(m.requests.WithLabelValues("3xx")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.requests.WithLabelValues("network")), ShouldEqual, 1)
			})
		})
	})
}

func TestServer(t *testing.T) {
	Convey("Given a running metrics server", t, func() {
		m := NewManager()
		m.ObserveOutcome(metrics.Success(200, time.Millisecond, 10))

		srv, err := Listen("127.0.0.1:0", m, logger.Nop())
		So(err, ShouldBeNil)
		srv.Start()

		Convey("Then /metrics exposes the run counters", func() {
			resp, err := http.Get("http://" + srv.Addr() + "/metrics")
			So(err, ShouldBeNil)
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(string(body), ShouldContainSubstring, `wordstress_requests_total{outcome="2xx"} 1`)
			So(string(body), ShouldContainSubstring, "wordstress_active_clients 0")
		})

		Convey("Then /healthz answers", func() {
			resp, err := http.Get("http://" + srv.Addr() + "/healthz")
			So(err, ShouldBeNil)
			resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})

		Reset(func() {
			So(srv.Shutdown(context.Background()), ShouldBeNil)
		})
	})

	Convey("Given an address that is already taken", t, func() {
		first, err := Listen("127.0.0.1:0", NewManager(), nil)
		So(err, ShouldBeNil)
		defer first.Shutdown(context.Background())

		_, err = Listen(first.Addr(), NewManager(), nil)
		So(err, ShouldNotBeNil)
	})

	Convey("Given a server that never started", t, func() {
		srv, err := Listen("127.0.0.1:0", NewManager(), nil)
		So(err, ShouldBeNil)
		So(srv.Shutdown(context.Background()), ShouldBeNil)
	})
}
