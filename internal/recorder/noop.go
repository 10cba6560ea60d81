package recorder

import "ValueSentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordValuation(_ *model.Valuation) error          { return nil }
func (n *NoopRecorder) RecordVerdictChange(_ *VerdictChange) error        { return nil }
func (n *NoopRecorder) History(_ string, _ int) ([]HistoryEntry, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                     { return nil }
