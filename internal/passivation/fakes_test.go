package passivation

import (
	"context"
	"fmt"

	"github.com/odense-rpa/passivering-af-ungesager/internal/nexus"
	"github.com/odense-rpa/passivering-af-ungesager/internal/nexusdb"
	"github.com/odense-rpa/passivering-af-ungesager/internal/workqueue"
)

func links(self string) nexus.Links {
	return nexus.Links{"self": {Href: self}}
}

func node(name, kind, status string, children ...*nexus.RefNode) *nexus.RefNode {
	return &nexus.RefNode{
		Name:          name,
		Kind:          kind,
		PathwayStatus: status,
		Children:      children,
		Links:         links("/refs/" + name),
	}
}

// fakeCaseClient implements CaseClient in memory, recording every mutation.
type fakeCaseClient struct {
	activities  []nexus.Activity
	activityErr error

	citizens            map[string]*nexus.Citizen
	forms               map[string]*nexus.Form
	tasks               map[string]*nexus.Task
	employees           map[string]*nexus.Employee
	employeesByInitials map[string]*nexus.Employee
	grants              map[string]nexus.Grant
	view                *nexus.View
	refs                *nexus.ReferenceTree
	relations           []nexus.OrganizationRelation

	createdTasks     []nexus.CreateTaskRequest
	closedPathways   []string
	detachedIDs      []int64
	removedRelations []string
	editedTasks      []*nexus.Task
	closedTasks      []*nexus.Task
}

func newFakeCaseClient() *fakeCaseClient {
	return &fakeCaseClient{
		citizens:            map[string]*nexus.Citizen{},
		forms:               map[string]*nexus.Form{},
		tasks:               map[string]*nexus.Task{},
		employees:           map[string]*nexus.Employee{},
		employeesByInitials: map[string]*nexus.Employee{},
		grants:              map[string]nexus.Grant{},
	}
}

func (f *fakeCaseClient) ActivityList(ctx context.Context, name string, maxPages int) ([]nexus.Activity, error) {
	return f.activities, f.activityErr
}

func (f *fakeCaseClient) Citizen(ctx context.Context, ref nexus.Resolvable) (*nexus.Citizen, error) {
	if c, ok := f.citizens[ref.SelfHref()]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("unresolvable citizen reference %q", ref.SelfHref())
}

func (f *fakeCaseClient) Form(ctx context.Context, ref nexus.Resolvable) (*nexus.Form, error) {
	if form, ok := f.forms[ref.SelfHref()]; ok {
		return form, nil
	}
	return nil, fmt.Errorf("unresolvable form reference %q", ref.SelfHref())
}

func (f *fakeCaseClient) Task(ctx context.Context, ref nexus.Resolvable) (*nexus.Task, error) {
	if t, ok := f.tasks[ref.SelfHref()]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("unresolvable task reference %q", ref.SelfHref())
}

func (f *fakeCaseClient) Employee(ctx context.Context, ref nexus.Resolvable) (*nexus.Employee, error) {
	if e, ok := f.employees[ref.SelfHref()]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("unresolvable employee reference %q", ref.SelfHref())
}

func (f *fakeCaseClient) CitizenView(ctx context.Context, citizen *nexus.Citizen, name string) (*nexus.View, error) {
	return f.view, nil
}

func (f *fakeCaseClient) ViewReferences(ctx context.Context, view *nexus.View) (*nexus.ReferenceTree, error) {
	return f.refs, nil
}

func (f *fakeCaseClient) ActiveGrants(ctx context.Context, refs []*nexus.RefNode) ([]nexus.Grant, error) {
	var active []nexus.Grant
	for _, ref := range refs {
		grant, ok := f.grants[ref.SelfHref()]
		if !ok {
			return nil, fmt.Errorf("unresolvable grant reference %q", ref.SelfHref())
		}
		if grant.Active {
			active = append(active, grant)
		}
	}
	return active, nil
}

func (f *fakeCaseClient) CreateTask(ctx context.Context, req nexus.CreateTaskRequest) error {
	f.createdTasks = append(f.createdTasks, req)
	return nil
}

func (f *fakeCaseClient) EditTask(ctx context.Context, task *nexus.Task) error {
	f.editedTasks = append(f.editedTasks, task)
	return nil
}

func (f *fakeCaseClient) CloseTask(ctx context.Context, task *nexus.Task) error {
	f.closedTasks = append(f.closedTasks, task)
	return nil
}

func (f *fakeCaseClient) ClosePathway(ctx context.Context, ref *nexus.RefNode) error {
	f.closedPathways = append(f.closedPathways, ref.Name)
	return nil
}

func (f *fakeCaseClient) DetachEmployee(ctx context.Context, employee *nexus.Employee) error {
	f.detachedIDs = append(f.detachedIDs, employee.ID)
	return nil
}

func (f *fakeCaseClient) OrganizationRelations(ctx context.Context, citizen *nexus.Citizen) ([]nexus.OrganizationRelation, error) {
	return f.relations, nil
}

func (f *fakeCaseClient) RemoveCitizenRelation(ctx context.Context, relation *nexus.OrganizationRelation) error {
	f.removedRelations = append(f.removedRelations, relation.Name)
	return nil
}

func (f *fakeCaseClient) EmployeeByInitials(ctx context.Context, initials string) (*nexus.Employee, error) {
	return f.employeesByInitials[initials], nil
}

// fakeDirectory implements EmployeeDirectory.
type fakeDirectory struct {
	rows map[string]*nexusdb.DirectoryEmployee
}

func (f *fakeDirectory) EmployeeByActivityID(ctx context.Context, activityID string) (*nexusdb.DirectoryEmployee, error) {
	return f.rows[activityID], nil
}

// fakeQueue implements Queue in memory.
type fakeQueue struct {
	existing map[string][]workqueue.Item // keyed by reference
	pending  []*workqueue.Item

	added     []workqueue.Item
	completed []string
	failed    map[string]string
	cleared   []workqueue.Status
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{
		existing: map[string][]workqueue.Item{},
		failed:   map[string]string{},
	}
}

func (f *fakeQueue) Add(ctx context.Context, data any, reference string) (*workqueue.Item, error) {
	item := workqueue.Item{ID: fmt.Sprintf("item-%d", len(f.added)+1), Reference: reference, Status: workqueue.StatusNew}
	f.added = append(f.added, item)
	return &item, nil
}

func (f *fakeQueue) ByReference(ctx context.Context, reference string, status workqueue.Status) ([]workqueue.Item, error) {
	var out []workqueue.Item
	for _, item := range f.existing[reference] {
		if item.Status == status {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeQueue) Next(ctx context.Context) (*workqueue.Item, error) {
	if len(f.pending) == 0 {
		return nil, nil
	}
	item := f.pending[0]
	f.pending = f.pending[1:]
	item.Status = workqueue.StatusInProgress
	return item, nil
}

func (f *fakeQueue) Complete(ctx context.Context, item *workqueue.Item) error {
	f.completed = append(f.completed, item.ID)
	return nil
}

func (f *fakeQueue) Fail(ctx context.Context, item *workqueue.Item, message string) error {
	f.failed[item.ID] = message
	return nil
}

func (f *fakeQueue) Clear(ctx context.Context, status workqueue.Status) error {
	f.cleared = append(f.cleared, status)
	return nil
}

// fakeReporter implements Reporter.
type reportCall struct {
	reportID string
	group    string
	data     map[string]any
}

type fakeReporter struct {
	reports []reportCall
}

func (f *fakeReporter) Report(ctx context.Context, reportID, group string, data map[string]any) {
	f.reports = append(f.reports, reportCall{reportID: reportID, group: group, data: data})
}

// fakeTracker implements Tracker.
type fakeTracker struct {
	completed []string
	partial   []string
}

func (f *fakeTracker) TrackTask(ctx context.Context, processName string) {
	f.completed = append(f.completed, processName)
}

func (f *fakeTracker) TrackPartialTask(ctx context.Context, processName string) {
	f.partial = append(f.partial, processName)
}
