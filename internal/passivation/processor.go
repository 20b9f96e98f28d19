package passivation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/odense-rpa/passivering-af-ungesager/internal/nexus"
	"github.com/odense-rpa/passivering-af-ungesager/internal/workqueue"
	"github.com/odense-rpa/passivering-af-ungesager/pkg/cerr"
	"github.com/odense-rpa/passivering-af-ungesager/pkg/clog"
)

const (
	// citizenViewName is the pathway view holding the full reference tree.
	citizenViewName = "-Alt"

	reportGroupManual    = "Manuel behandling"
	reportGroupProcessed = "Behandlet"

	// deferDays is how far a blocked task's due date is pushed.
	deferDays = 7
)

// Processor drains the work queue one item at a time. Every acquired item
// is completed or failed before the next one is touched; a hard error also
// fails the item, then aborts the run.
type Processor struct {
	rules    Rules
	queue    Queue
	nexus    CaseClient
	service  *Service
	reporter Reporter
	tracker  Tracker
}

func NewProcessor(rules Rules, queue Queue, caseClient CaseClient, service *Service, reporter Reporter, tracker Tracker) *Processor {
	return &Processor{
		rules:    rules,
		queue:    queue,
		nexus:    caseClient,
		service:  service,
		reporter: reporter,
		tracker:  tracker,
	}
}

func (p *Processor) Process(ctx context.Context) error {
	for {
		item, err := p.queue.Next(ctx)
		if err != nil {
			return err
		}
		if item == nil {
			return nil
		}
		if err := p.processItem(ctx, item); err != nil {
			return err
		}
	}
}

// processItem guarantees a completion or failure signal on every exit path.
// Item-level (business rule) errors fail the item and let the batch
// continue; anything else fails the item and propagates.
func (p *Processor) processItem(ctx context.Context, item *workqueue.Item) error {
	ctx = clog.ContextWithSlog(ctx)
	clog.AddAttribute(ctx, "reference", item.Reference)

	err := p.handle(ctx, item)
	if err == nil {
		return p.queue.Complete(ctx, item)
	}

	cerr.Record(ctx, err)
	slog.ErrorContext(ctx, "failed to process work item")
	if failErr := p.queue.Fail(ctx, item, err.Error()); failErr != nil {
		slog.ErrorContext(ctx, "failed to mark work item failed", "error", failErr)
	}
	if cerr.IsCode(err, cerr.FailedPrecondition) {
		return nil
	}
	return err
}

func (p *Processor) handle(ctx context.Context, item *workqueue.Item) error {
	var snapshot nexus.Activity
	if err := json.Unmarshal(item.Data, &snapshot); err != nil {
		return cerr.NewError(cerr.FailedPrecondition, "work item payload is not a task snapshot", err)
	}
	if len(snapshot.Patients) == 0 || len(snapshot.Children) == 0 {
		return cerr.NewError(cerr.FailedPrecondition, "task snapshot is missing a citizen or form reference", nil)
	}

	citizen, err := p.nexus.Citizen(ctx, &snapshot.Patients[0])
	if err != nil {
		return err
	}
	clog.AddAttribute(ctx, "citizen", citizen.PatientIdentifier.Identifier)

	form, err := p.nexus.Form(ctx, &snapshot.Children[0])
	if err != nil {
		return err
	}
	task, err := p.nexus.Task(ctx, &snapshot)
	if err != nil {
		return err
	}

	var message string
	if form.PathwayAssociation.Placement == nil {
		message = msgFormNotAttached
	} else {
		view, err := p.nexus.CitizenView(ctx, citizen, citizenViewName)
		if err != nil {
			return err
		}
		if view == nil {
			return cerr.NewError(cerr.Internal,
				fmt.Sprintf("could not find view %q for citizen %s", citizenViewName, citizen.PatientIdentifier.Identifier), nil)
		}
		refs, err := p.nexus.ViewReferences(ctx, view)
		if err != nil {
			return err
		}

		if form.PathwayAssociation.Placement.Name == p.rules.CompensationPathway {
			message, err = p.service.EvaluateCompensationCase(ctx, form, refs, citizen)
		} else {
			message, err = p.service.EvaluateSocialCases(ctx, form, refs, citizen)
		}
		if err != nil {
			return err
		}
	}

	if message != "" {
		return p.deferForManualHandling(ctx, citizen, task, message)
	}
	return p.closeTask(ctx, citizen, task)
}

// deferForManualHandling reports the block for the dashboard and pushes the
// task's due date one week so the next scheduled run picks it up again.
func (p *Processor) deferForManualHandling(ctx context.Context, citizen *nexus.Citizen, task *nexus.Task, message string) error {
	p.reporter.Report(ctx, p.rules.ReportID, reportGroupManual, map[string]any{
		"Cpr":            citizen.PatientIdentifier.Identifier,
		"Fejlmeddelelse": message,
	})

	due, err := time.Parse(nexus.DueDateLayout, task.DueDate)
	if err != nil {
		return cerr.NewError(cerr.FailedPrecondition,
			fmt.Sprintf("task %d has an unparseable due date %q", task.ID, task.DueDate), err)
	}
	task.DueDate = due.AddDate(0, 0, deferDays).Format(nexus.DueDateLayout)
	if err := p.nexus.EditTask(ctx, task); err != nil {
		return err
	}

	p.tracker.TrackPartialTask(ctx, p.rules.ProcessName)
	slog.InfoContext(ctx, "deferred task for manual handling", "message", message, "due_date", task.DueDate)
	return nil
}

func (p *Processor) closeTask(ctx context.Context, citizen *nexus.Citizen, task *nexus.Task) error {
	if err := p.nexus.CloseTask(ctx, task); err != nil {
		return err
	}
	p.reporter.Report(ctx, p.rules.ReportID, reportGroupProcessed, map[string]any{
		"Cpr": citizen.PatientIdentifier.Identifier,
	})
	p.tracker.TrackTask(ctx, p.rules.ProcessName)
	slog.InfoContext(ctx, "closed task")
	return nil
}
