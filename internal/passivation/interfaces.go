package passivation

import (
	"context"

	"github.com/odense-rpa/passivering-af-ungesager/internal/nexus"
	"github.com/odense-rpa/passivering-af-ungesager/internal/nexusdb"
	"github.com/odense-rpa/passivering-af-ungesager/internal/workqueue"
)

// CaseClient is the slice of the case-management API this package drives.
// *nexus.Client satisfies it; tests substitute fakes.
type CaseClient interface {
	ActivityList(ctx context.Context, name string, maxPages int) ([]nexus.Activity, error)

	Citizen(ctx context.Context, ref nexus.Resolvable) (*nexus.Citizen, error)
	Form(ctx context.Context, ref nexus.Resolvable) (*nexus.Form, error)
	Task(ctx context.Context, ref nexus.Resolvable) (*nexus.Task, error)
	Employee(ctx context.Context, ref nexus.Resolvable) (*nexus.Employee, error)

	CitizenView(ctx context.Context, citizen *nexus.Citizen, name string) (*nexus.View, error)
	ViewReferences(ctx context.Context, view *nexus.View) (*nexus.ReferenceTree, error)

	ActiveGrants(ctx context.Context, refs []*nexus.RefNode) ([]nexus.Grant, error)
	CreateTask(ctx context.Context, req nexus.CreateTaskRequest) error
	EditTask(ctx context.Context, task *nexus.Task) error
	CloseTask(ctx context.Context, task *nexus.Task) error
	ClosePathway(ctx context.Context, ref *nexus.RefNode) error
	DetachEmployee(ctx context.Context, employee *nexus.Employee) error
	OrganizationRelations(ctx context.Context, citizen *nexus.Citizen) ([]nexus.OrganizationRelation, error)
	RemoveCitizenRelation(ctx context.Context, relation *nexus.OrganizationRelation) error
	EmployeeByInitials(ctx context.Context, initials string) (*nexus.Employee, error)
}

// EmployeeDirectory is the secondary employee data store.
type EmployeeDirectory interface {
	EmployeeByActivityID(ctx context.Context, activityID string) (*nexusdb.DirectoryEmployee, error)
}

// Queue is the work queue storage service.
type Queue interface {
	Add(ctx context.Context, data any, reference string) (*workqueue.Item, error)
	ByReference(ctx context.Context, reference string, status workqueue.Status) ([]workqueue.Item, error)
	Next(ctx context.Context) (*workqueue.Item, error)
	Complete(ctx context.Context, item *workqueue.Item) error
	Fail(ctx context.Context, item *workqueue.Item, message string) error
	Clear(ctx context.Context, status workqueue.Status) error
}

// Reporter is the audit reporting sink.
type Reporter interface {
	Report(ctx context.Context, reportID, group string, data map[string]any)
}

// Tracker is the process metrics sink.
type Tracker interface {
	TrackTask(ctx context.Context, processName string)
	TrackPartialTask(ctx context.Context, processName string)
}
