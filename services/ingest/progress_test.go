package ingest

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestProjectProgressNoJobs(t *testing.T) {
	itemID := uuid.New()
	p := projectProgress(itemID, nil)

	if p.ItemID != itemID {
		t.Fatalf("item id = %s, want %s", p.ItemID, itemID)
	}
	if p.OverallPercent != 0 || p.TotalJobs != 0 || p.CompletedJobs != 0 {
		t.Fatalf("expected zeroed progress, got %+v", p)
	}
	if p.Stage != "not queued" {
		t.Fatalf("stage = %q", p.Stage)
	}
}

func TestProjectProgressBlending(t *testing.T) {
	cases := []struct {
		name        string
		jobs        []Job
		wantPercent int
		wantStage   string
	}{
		{
			name:        "single queued",
			jobs:        []Job{{Kind: JobKindAnalyze, Status: JobQueued}},
			wantPercent: 0,
			wantStage:   "queued",
		},
		{
			name:        "single running at 40",
			jobs:        []Job{{Kind: JobKindAnalyze, Status: JobRunning, ProgressPercent: 40}},
			wantPercent: 40,
			wantStage:   "content analysis in progress",
		},
		{
			name:        "single complete",
			jobs:        []Job{{Kind: JobKindAnalyze, Status: JobCompleted, ProgressPercent: 100}},
			wantPercent: 100,
			wantStage:   "complete",
		},
		{
			name: "one done one halfway",
			jobs: []Job{
				{Kind: JobKindAnalyze, Status: JobCompleted, ProgressPercent: 100},
				{Kind: JobKindAnalyze, Status: JobRunning, ProgressPercent: 50},
			},
			wantPercent: 75,
			wantStage:   "content analysis in progress",
		},
		{
			name: "one done one queued",
			jobs: []Job{
				{Kind: JobKindAnalyze, Status: JobCompleted},
				{Kind: JobKindAnalyze, Status: JobQueued},
			},
			wantPercent: 50,
			wantStage:   "queued",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := projectProgress(uuid.New(), tc.jobs)
			if p.OverallPercent != tc.wantPercent {
				t.Errorf("overall percent = %d, want %d", p.OverallPercent, tc.wantPercent)
			}
			if p.Stage != tc.wantStage {
				t.Errorf("stage = %q, want %q", p.Stage, tc.wantStage)
			}
			if p.TotalJobs != len(tc.jobs) {
				t.Errorf("total jobs = %d, want %d", p.TotalJobs, len(tc.jobs))
			}
		})
	}
}

func TestProjectProgressFailedShortCircuitsStage(t *testing.T) {
	jobs := []Job{
		{Kind: JobKindAnalyze, Status: JobFailed, Error: "macro indicators found"},
		{Kind: JobKindAnalyze, Status: JobRunning, ProgressPercent: 90},
	}

	p := projectProgress(uuid.New(), jobs)
	if p.Stage != "content analysis failed: macro indicators found" {
		t.Fatalf("stage = %q", p.Stage)
	}

	// Failure wins the label even when a later job is further along.
	if !strings.Contains(p.Stage, "failed") {
		t.Fatalf("expected failed stage, got %q", p.Stage)
	}
}

func TestProjectProgressFailedWithoutError(t *testing.T) {
	p := projectProgress(uuid.New(), []Job{{Kind: JobKindAnalyze, Status: JobFailed}})
	if p.Stage != "content analysis failed" {
		t.Fatalf("stage = %q", p.Stage)
	}
}

func TestStageLabelUnknownKind(t *testing.T) {
	if got := stageLabel("TRANSCODE"); got != "processing" {
		t.Fatalf("stageLabel = %q", got)
	}
}
