package metrics

// MultiSink fans out records to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordTick forwards the stats to all sinks, returning the first error encountered.
func (m *MultiSink) RecordTick(stats TickStats) error {
	for _, s := range m.Sinks {
		if err := s.RecordTick(stats); err != nil {
			return err
		}
	}
	return nil
}

// RecordRejection forwards to sinks implementing RejectionRecorder.
func (m *MultiSink) RecordRejection(ev RejectionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(RejectionRecorder); ok {
			if err := rec.RecordRejection(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordHalt forwards to sinks implementing HaltRecorder.
func (m *MultiSink) RecordHalt(ev HaltEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(HaltRecorder); ok {
			if err := rec.RecordHalt(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
