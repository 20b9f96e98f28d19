package passivation

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/odense-rpa/passivering-af-ungesager/internal/workqueue"
	"github.com/odense-rpa/passivering-af-ungesager/pkg/cerr"
)

const (
	// maxActivityPages bounds the paged activity list fetch.
	maxActivityPages = 10
	// activityStatusActive is the upstream status of a live activity.
	activityStatusActive = "Aktiv"
	// enqueueWindow is both the activity age cutoff and the duplicate
	// completion window: tasks older than this are assumed handled, and a
	// completion older than this no longer blocks re-enqueuing.
	enqueueWindow = 7 * 24 * time.Hour
)

// Populator fills the work queue from the external activity list. It never
// mutates task or case state.
type Populator struct {
	rules  Rules
	source CaseClient
	queue  Queue
	now    func() time.Time
}

func NewPopulator(rules Rules, source CaseClient, queue Queue) *Populator {
	return &Populator{
		rules:  rules,
		source: source,
		queue:  queue,
		now:    time.Now,
	}
}

// Populate enqueues one work item per candidate task that has not been
// completed within the enqueue window. An empty activity list is a
// configuration or upstream fault, not a normal empty run.
func (p *Populator) Populate(ctx context.Context) error {
	activities, err := p.source.ActivityList(ctx, p.rules.ActivityListName, maxActivityPages)
	if err != nil {
		return err
	}
	if len(activities) == 0 {
		return cerr.NewError(cerr.NotFound,
			fmt.Sprintf("no activities found in activity list %q", p.rules.ActivityListName), nil)
	}

	cutoff := p.now().Add(-enqueueWindow)
	enqueued := 0
	for _, activity := range activities {
		if activity.Status != activityStatusActive || activity.Name != p.rules.TaskName {
			continue
		}
		if !activity.Date.After(cutoff) {
			continue
		}

		reference := strconv.FormatInt(activity.ID, 10)
		completed, err := p.queue.ByReference(ctx, reference, workqueue.StatusCompleted)
		if err != nil {
			return err
		}
		recentlyCompleted := false
		for _, item := range completed {
			if item.UpdatedAt.After(cutoff) {
				recentlyCompleted = true
				break
			}
		}
		if recentlyCompleted {
			continue
		}

		if _, err := p.queue.Add(ctx, activity, reference); err != nil {
			return err
		}
		enqueued++
		slog.InfoContext(ctx, "enqueued work item", "reference", reference)
	}
	slog.InfoContext(ctx, "populated work queue", "candidates", len(activities), "enqueued", enqueued)
	return nil
}
