package ingest

import (
	"fmt"

	"github.com/google/uuid"
)

// projectProgress folds an ordered job list into the overall percentage and a
// human stage label. A single FAILED job short-circuits the label no matter
// what follows it in creation order.
func projectProgress(itemID uuid.UUID, jobs []Job) Progress {
	p := Progress{ItemID: itemID, TotalJobs: len(jobs)}
	if len(jobs) == 0 {
		p.Stage = "not queued"
		return p
	}

	var (
		completed int
		running   *Job
		failed    *Job
	)
	for i := range jobs {
		switch jobs[i].Status {
		case JobCompleted:
			completed++
		case JobRunning:
			if running == nil {
				running = &jobs[i]
			}
		case JobFailed:
			if failed == nil {
				failed = &jobs[i]
			}
		}
	}

	fraction := float64(completed)
	if running != nil {
		fraction += float64(running.ProgressPercent) / 100
	}
	p.CompletedJobs = completed
	p.OverallPercent = int(fraction / float64(len(jobs)) * 100)

	switch {
	case failed != nil:
		if failed.Error != "" {
			p.Stage = fmt.Sprintf("%s failed: %s", stageLabel(failed.Kind), failed.Error)
		} else {
			p.Stage = fmt.Sprintf("%s failed", stageLabel(failed.Kind))
		}
	case running != nil:
		p.Stage = fmt.Sprintf("%s in progress", stageLabel(running.Kind))
	case completed == len(jobs):
		p.Stage = "complete"
	default:
		p.Stage = "queued"
	}

	return p
}

func stageLabel(kind string) string {
	switch kind {
	case JobKindAnalyze:
		return "content analysis"
	default:
		return "processing"
	}
}
