package progress

import "testing"

func TestStage_Order(t *testing.T) {
	stages := Stages()
	want := []Stage{StageIngest, StageSubtitle, StageAnalyze, StageHighlight, StageExport, StageDone}
	if len(stages) != len(want) {
		t.Fatalf("Stages() len = %d, want %d", len(stages), len(want))
	}
	for i, s := range want {
		if stages[i] != s {
			t.Errorf("Stages()[%d] = %s, want %s", i, stages[i], s)
		}
		if s.Index() != i {
			t.Errorf("%s.Index() = %d, want %d", s, s.Index(), i)
		}
	}
}

func TestStage_Before(t *testing.T) {
	if !StageIngest.Before(StageSubtitle) {
		t.Error("INGEST should precede SUBTITLE")
	}
	if !StageHighlight.Before(StageDone) {
		t.Error("HIGHLIGHT should precede DONE")
	}
	if StageDone.Before(StageExport) {
		t.Error("DONE should not precede EXPORT")
	}
	if StageAnalyze.Before(StageAnalyze) {
		t.Error("a stage should not precede itself")
	}
	if !Stage("BOGUS").Before(StageIngest) {
		t.Error("unknown stage should precede everything")
	}
}

func TestStage_Valid(t *testing.T) {
	for _, s := range Stages() {
		if !s.Valid() {
			t.Errorf("%s.Valid() = false", s)
		}
	}
	if Stage("WARMUP").Valid() {
		t.Error("unknown stage reported valid")
	}
	if Stage("ingest").Valid() {
		t.Error("stage names are case sensitive")
	}
}

func TestStage_Terminal(t *testing.T) {
	if !StageDone.Terminal() {
		t.Error("DONE.Terminal() = false")
	}
	for _, s := range []Stage{StageIngest, StageSubtitle, StageAnalyze, StageHighlight, StageExport} {
		if s.Terminal() {
			t.Errorf("%s.Terminal() = true", s)
		}
	}
}
