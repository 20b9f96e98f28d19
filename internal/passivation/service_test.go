package passivation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odense-rpa/passivering-af-ungesager/internal/nexus"
	"github.com/odense-rpa/passivering-af-ungesager/internal/nexusdb"
)

func testCitizen() *nexus.Citizen {
	c := &nexus.Citizen{ID: 1, Links: links("/citizens/1")}
	c.PatientIdentifier.Identifier = "010110-1234"
	return c
}

func testForm() *nexus.Form {
	return &nexus.Form{ID: 2, Links: links("/forms/2")}
}

func testEmployee(id int64, activityID string) *nexus.Employee {
	e := &nexus.Employee{ID: id, Links: links("/refs/medarbejder")}
	e.ActivityIdentifier.ActivityID = activityID
	e.PrimaryOrganization.Name = "Ungerådgivningen Special"
	return e
}

func newTestService(client *fakeCaseClient, directory *fakeDirectory) *Service {
	if directory == nil {
		directory = &fakeDirectory{rows: map[string]*nexusdb.DirectoryEmployee{}}
	}
	return NewService(DefaultRules(), client, directory)
}

func TestEvaluateCompensationCaseNotFound(t *testing.T) {
	rules := DefaultRules()
	client := newFakeCaseClient()
	refs := &nexus.ReferenceTree{Roots: []*nexus.RefNode{
		node(rules.RootCase, nexus.KindPathwayReference, "ACTIVE"),
	}}

	svc := newTestService(client, nil)
	msg, err := svc.EvaluateCompensationCase(context.Background(), testForm(), refs, testCitizen())

	require.NoError(t, err)
	assert.Equal(t, "Kunne ikke finde aktivkompensationssag.", msg)
	assert.Empty(t, client.closedPathways)
	assert.Empty(t, client.createdTasks)
}

func TestEvaluateCompensationCaseCloses(t *testing.T) {
	rules := DefaultRules()
	client := newFakeCaseClient()
	client.employees["/refs/medarbejder"] = testEmployee(10, "act-10")
	client.relations = []nexus.OrganizationRelation{
		{ID: 1, Name: rules.CompensationCleanupRelation},
		{ID: 2, Name: "Ungerådgivningen Social 1"},
	}
	refs := &nexus.ReferenceTree{Roots: []*nexus.RefNode{
		node(rules.RootCase, nexus.KindPathwayReference, "ACTIVE",
			node(rules.CompensationPathway, nexus.KindPathwayReference, "ACTIVE",
				node("medarbejder", nexus.KindProfessionalReference, ""),
			),
		),
	}}

	svc := newTestService(client, nil)
	msg, err := svc.EvaluateCompensationCase(context.Background(), testForm(), refs, testCitizen())

	require.NoError(t, err)
	assert.Empty(t, msg)
	assert.Equal(t, []int64{10}, client.detachedIDs)
	assert.Equal(t, []string{rules.CompensationPathway}, client.closedPathways)
	// Only the single named relation may go, never others.
	assert.Equal(t, []string{rules.CompensationCleanupRelation}, client.removedRelations)
	assert.Empty(t, client.createdTasks)
}

func TestEvaluateCompensationCaseBlockedFallsThrough(t *testing.T) {
	rules := DefaultRules()
	client := newFakeCaseClient()
	client.employees["/refs/medarbejder"] = testEmployee(10, "act-10")
	client.employeesByInitials["ab"] = testEmployee(11, "act-11")
	client.grants["/refs/grant1"] = nexus.Grant{ID: 100, Active: true}
	client.relations = []nexus.OrganizationRelation{
		{ID: 1, Name: rules.CompensationCleanupRelation},
	}
	directory := &fakeDirectory{rows: map[string]*nexusdb.DirectoryEmployee{
		"act-10": {ActivityID: "act-10", PrimaryIdentifier: "ab"},
	}}
	refs := &nexus.ReferenceTree{Roots: []*nexus.RefNode{
		node(rules.RootCase, nexus.KindPathwayReference, "ACTIVE",
			node(rules.CompensationPathway, nexus.KindPathwayReference, "ACTIVE",
				node("medarbejder", nexus.KindProfessionalReference, ""),
				node(rules.InterventionsFolder, "", "",
					node("grant1", nexus.KindGrantReference, ""),
				),
			),
		),
	}}

	svc := newTestService(client, directory)
	msg, err := svc.EvaluateCompensationCase(context.Background(), testForm(), refs, testCitizen())

	require.NoError(t, err)
	assert.Equal(t, "Passivering ikke mulig pga. aktiv indsats.", msg)

	require.Len(t, client.createdTasks, 1)
	created := client.createdTasks[0]
	assert.Equal(t, rules.BlockTaskType, created.Type)
	assert.Equal(t, rules.BlockTaskTitle, created.Title)
	assert.Equal(t, "Ungerådgivningen Special", created.ResponsibleOrganization)
	assert.Equal(t, int64(11), created.ResponsibleEmployee.ID)
	assert.True(t, created.StartDate.AddDate(0, 0, 7).Equal(created.DueDate))

	// The compensation variant still detaches, closes and cleans up after a
	// block; the re-resolved directory employee is the one detached.
	assert.Equal(t, []int64{11}, client.detachedIDs)
	assert.Equal(t, []string{rules.CompensationPathway}, client.closedPathways)
	assert.Equal(t, []string{rules.CompensationCleanupRelation}, client.removedRelations)
}

func TestEvaluateCompensationCaseBlockedEmployeeUnresolved(t *testing.T) {
	rules := DefaultRules()
	client := newFakeCaseClient()
	client.grants["/refs/grant1"] = nexus.Grant{ID: 100, Active: true}
	refs := &nexus.ReferenceTree{Roots: []*nexus.RefNode{
		node(rules.RootCase, nexus.KindPathwayReference, "ACTIVE",
			node(rules.CompensationPathway, nexus.KindPathwayReference, "ACTIVE",
				node(rules.InterventionsFolder, "", "",
					node("grant1", nexus.KindGrantReference, ""),
				),
			),
		),
	}}

	svc := newTestService(client, nil)
	msg, err := svc.EvaluateCompensationCase(context.Background(), testForm(), refs, testCitizen())

	require.NoError(t, err)
	assert.Equal(t, "Kunne ikke finde medarbejder på kompensationssag.", msg)
	// No mutation of any kind without a resolved employee.
	assert.Empty(t, client.createdTasks)
	assert.Empty(t, client.closedPathways)
	assert.Empty(t, client.detachedIDs)
	assert.Empty(t, client.removedRelations)
}

func TestEvaluateCompensationCaseBlockedStaleDirectoryRow(t *testing.T) {
	rules := DefaultRules()
	client := newFakeCaseClient()
	client.employees["/refs/medarbejder"] = testEmployee(10, "act-10")
	client.grants["/refs/grant1"] = nexus.Grant{ID: 100, Active: true}
	// Directory has no row for act-10: the secondary chain comes up empty.
	refs := &nexus.ReferenceTree{Roots: []*nexus.RefNode{
		node(rules.RootCase, nexus.KindPathwayReference, "ACTIVE",
			node(rules.CompensationPathway, nexus.KindPathwayReference, "ACTIVE",
				node("medarbejder", nexus.KindProfessionalReference, ""),
				node(rules.InterventionsFolder, "", "",
					node("grant1", nexus.KindGrantReference, ""),
				),
			),
		),
	}}

	svc := newTestService(client, nil)
	msg, err := svc.EvaluateCompensationCase(context.Background(), testForm(), refs, testCitizen())

	require.NoError(t, err)
	assert.Equal(t, "Kunne ikke finde medarbejder på kompensationssag.", msg)
	assert.Empty(t, client.createdTasks)
	assert.Empty(t, client.closedPathways)
}

func TestEvaluateSocialCasesBlockShortCircuit(t *testing.T) {
	rules := DefaultRules()
	client := newFakeCaseClient()
	client.employees["/refs/medarbejder"] = testEmployee(10, "act-10")
	client.employeesByInitials["ab"] = testEmployee(11, "act-11")
	client.grants["/refs/grant1"] = nexus.Grant{ID: 100, Active: true}
	directory := &fakeDirectory{rows: map[string]*nexusdb.DirectoryEmployee{
		"act-10": {ActivityID: "act-10", PrimaryIdentifier: "ab"},
	}}
	refs := &nexus.ReferenceTree{Roots: []*nexus.RefNode{
		node(rules.RootCase, nexus.KindPathwayReference, "ACTIVE",
			node("medarbejder", nexus.KindProfessionalReference, ""),
			node("Sag: Anbringelse", nexus.KindPathwayReference, "ACTIVE",
				node(rules.InterventionsFolder, "", "",
					node("grant1", nexus.KindGrantReference, ""),
				),
			),
			node("Sag: Forebyggelse", nexus.KindPathwayReference, "ACTIVE"),
		),
	}}

	svc := newTestService(client, directory)
	msg, err := svc.EvaluateSocialCases(context.Background(), testForm(), refs, testCitizen())

	require.NoError(t, err)
	assert.Equal(t, "Passivering ikke mulig pga. aktiv indsats.", msg)
	require.Len(t, client.createdTasks, 1)
	assert.Contains(t, client.createdTasks[0].Description, "Sag: Anbringelse")
	// The first block wins: the remaining pathway is untouched this run.
	assert.Empty(t, client.closedPathways)
	assert.Empty(t, client.detachedIDs)
}

func TestEvaluateSocialCasesBlockedEmployeeUnresolved(t *testing.T) {
	rules := DefaultRules()
	client := newFakeCaseClient()
	client.grants["/refs/grant1"] = nexus.Grant{ID: 100, Active: true}
	refs := &nexus.ReferenceTree{Roots: []*nexus.RefNode{
		node(rules.RootCase, nexus.KindPathwayReference, "ACTIVE",
			node("Sag: Anbringelse", nexus.KindPathwayReference, "ACTIVE",
				node(rules.InterventionsFolder, "", "",
					node("grant1", nexus.KindGrantReference, ""),
				),
			),
		),
	}}

	svc := newTestService(client, nil)
	msg, err := svc.EvaluateSocialCases(context.Background(), testForm(), refs, testCitizen())

	require.NoError(t, err)
	assert.Equal(t, "Kunne ikke finde medarbejder på kompensationssag.", msg)
	assert.Empty(t, client.createdTasks)
	assert.Empty(t, client.closedPathways)
}

func TestEvaluateSocialCasesClosesAll(t *testing.T) {
	rules := DefaultRules()
	client := newFakeCaseClient()
	client.employees["/refs/medarbejder"] = testEmployee(10, "act-10")
	rel1 := nexus.OrganizationRelation{ID: 1, Name: "Medlem"}
	rel1.Organization.Name = "Ungerådgivningen Social 1 - Rådgivere Børn"
	rel2 := nexus.OrganizationRelation{ID: 2, Name: "Medlem"}
	rel2.Organization.Name = "Sundhedsplejen"
	client.relations = []nexus.OrganizationRelation{rel1, rel2}
	refs := &nexus.ReferenceTree{Roots: []*nexus.RefNode{
		node(rules.RootCase, nexus.KindPathwayReference, "ACTIVE",
			node("medarbejder", nexus.KindProfessionalReference, ""),
			node("Sag: Anbringelse", nexus.KindPathwayReference, "ACTIVE"),
			// The compensation pathway is handled by its own variant.
			node(rules.CompensationPathway, nexus.KindPathwayReference, "ACTIVE"),
			node("Sag: Forebyggelse", nexus.KindPathwayReference, "ACTIVE"),
		),
	}}

	svc := newTestService(client, nil)
	msg, err := svc.EvaluateSocialCases(context.Background(), testForm(), refs, testCitizen())

	require.NoError(t, err)
	assert.Empty(t, msg)
	assert.Equal(t, []string{"Sag: Anbringelse", "Sag: Forebyggelse"}, client.closedPathways)
	// Only relations to the fixed youth-counseling organizations go, once
	// per closed pathway.
	assert.Equal(t, []string{"Medlem", "Medlem"}, client.removedRelations)
}

func TestResponsibleEmployeeRootFallback(t *testing.T) {
	rules := DefaultRules()
	client := newFakeCaseClient()
	client.employees["/refs/medarbejder"] = testEmployee(10, "act-10")
	refs := &nexus.ReferenceTree{Roots: []*nexus.RefNode{
		node(rules.RootCase, nexus.KindPathwayReference, "ACTIVE",
			node("medarbejder", nexus.KindProfessionalReference, ""),
			node("Sag: Anbringelse", nexus.KindPathwayReference, "ACTIVE"),
		),
	}}

	svc := newTestService(client, nil)
	employee, err := svc.responsibleEmployee(context.Background(), refs, "Sag: Anbringelse")

	require.NoError(t, err)
	require.NotNil(t, employee)
	assert.Equal(t, int64(10), employee.ID)
}

func TestResponsibleEmployeePrefersPathwayScope(t *testing.T) {
	rules := DefaultRules()
	client := newFakeCaseClient()
	client.employees["/refs/sagsbehandler"] = testEmployee(20, "act-20")
	client.employees["/refs/medarbejder"] = testEmployee(10, "act-10")
	refs := &nexus.ReferenceTree{Roots: []*nexus.RefNode{
		node(rules.RootCase, nexus.KindPathwayReference, "ACTIVE",
			node("medarbejder", nexus.KindProfessionalReference, ""),
			node("Sag: Anbringelse", nexus.KindPathwayReference, "ACTIVE",
				node("sagsbehandler", nexus.KindProfessionalReference, ""),
			),
		),
	}}

	svc := newTestService(client, nil)
	employee, err := svc.responsibleEmployee(context.Background(), refs, "Sag: Anbringelse")

	require.NoError(t, err)
	require.NotNil(t, employee)
	assert.Equal(t, int64(20), employee.ID)
}
