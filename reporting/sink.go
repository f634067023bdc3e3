package reporting

import "github.com/perfgo/ctsrun/model"

// Sink receives suite results. Consume is called once per case in execution
// order, Complete once with the final report.
type Sink interface {
	Consume(model.Entry) error
	Complete(*model.Report) error
}

var (
	_ Sink = (*TextSink)(nil)
	_ Sink = (*TableSink)(nil)
	_ Sink = (*JUnitSink)(nil)
	_ Sink = (*MetricsSink)(nil)
	_ Sink = (*TimingSink)(nil)
)
