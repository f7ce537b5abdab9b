package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerOnPrivateRegistry(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		reg := prometheus.NewRegistry()
		m := NewManager(reg)

		Convey("When load outcomes are recorded", func() {
			m.recordsLoaded.Add(3)
			m.loadFailures.WithLabelValues("missing_columns").Inc()

			Convey("Then the collectors reflect them", func() {
				So(testutil.ToFloat64(m.recordsLoaded), ShouldEqual, 3)
				So(testutil.ToFloat64(m.loadFailures.WithLabelValues("missing_columns")), ShouldEqual, 1)
			})
		})
	})
}

func TestGlobalRecordersAndHandler(t *testing.T) {
	Convey("Given the global recorders", t, func() {
		So(func() {
			RecordHTTPRequest("/api/report", "GET", "200", 12)
			RecordLoadFailure("unsupported_format")
			RecordLoad(10, 2)
			RecordRowsFiltered(7)
		}, ShouldNotPanic)

		Convey("Then the handler exposes them", func() {
			rec := httptest.NewRecorder()
			Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			So(rec.Code, ShouldEqual, http.StatusOK)
			body := rec.Body.String()
			So(strings.Contains(body, "npsmentor_dashboard_http_requests_total"), ShouldBeTrue)
			So(strings.Contains(body, "npsmentor_dashboard_records_rejected_total"), ShouldBeTrue)
		})

		Convey("Then the shared registry gathers them", func() {
			n, err := testutil.GatherAndCount(GetRegistry(), "npsmentor_dashboard_load_failures_total")
			So(err, ShouldBeNil)
			So(n, ShouldBeGreaterThanOrEqualTo, 1)
			So(testutil.ToFloat64(globalManager.loadFailures.WithLabelValues("unsupported_format")), ShouldBeGreaterThanOrEqualTo, 1)
		})
	})
}
