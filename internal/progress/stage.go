// Package progress polls the processing service for per-project pipeline
// progress and keeps the latest snapshot per project.
package progress

// Stage is one phase of the backend processing pipeline. Stages are totally
// ordered; DONE is terminal.
type Stage string

const (
	StageIngest    Stage = "INGEST"
	StageSubtitle  Stage = "SUBTITLE"
	StageAnalyze   Stage = "ANALYZE"
	StageHighlight Stage = "HIGHLIGHT"
	StageExport    Stage = "EXPORT"
	StageDone      Stage = "DONE"
)

var stageOrder = []Stage{
	StageIngest,
	StageSubtitle,
	StageAnalyze,
	StageHighlight,
	StageExport,
	StageDone,
}

// Stages returns the pipeline stages in processing order.
func Stages() []Stage {
	return append([]Stage(nil), stageOrder...)
}

// Index returns the stage's position in the pipeline order, or -1 for an
// unknown stage.
func (s Stage) Index() int {
	for i, stage := range stageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// Valid reports whether the stage is one of the known pipeline stages.
func (s Stage) Valid() bool {
	return s.Index() >= 0
}

// Terminal reports whether the pipeline has finished.
func (s Stage) Terminal() bool {
	return s == StageDone
}

// Before reports whether s precedes other in the pipeline order. Unknown
// stages precede everything.
func (s Stage) Before(other Stage) bool {
	return s.Index() < other.Index()
}
