package passivation

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/odense-rpa/passivering-af-ungesager/internal/nexus"
)

// User-facing messages routed to the manual-handling report. Kept verbatim
// from the running process; the dashboard filters on them.
const (
	msgFormNotAttached     = "Skema er ikke tilknyttet et forløb."
	msgNoCompensationCase  = "Kunne ikke finde aktivkompensationssag."
	msgEmployeeNotFound    = "Kunne ikke finde medarbejder på kompensationssag."
	msgActiveIntervention  = "Passivering ikke mulig pga. aktiv indsats."
	blockTaskDueDays       = 7
	blockDescriptionFormat = "Passivering af sag er ikke mulig, da en eller flere indsatser fortsat er aktive på %s.\n\n" +
		"Indsatser skal derfor afsluttes og efterfølgende skal denne opgave afsluttes.\n\n" +
		"Tyra vil herefter lukke sagen."
)

// Service is the passivation decision engine. Both evaluation variants
// return the block/error message to route to manual handling, or an empty
// string when every targeted pathway closed cleanly. A non-nil error means
// an infrastructure fault; the caller aborts the run.
type Service struct {
	rules     Rules
	nexus     CaseClient
	directory EmployeeDirectory
	now       func() time.Time
}

func NewService(rules Rules, nexus CaseClient, directory EmployeeDirectory) *Service {
	return &Service{
		rules:     rules,
		nexus:     nexus,
		directory: directory,
		now:       time.Now,
	}
}

// pathwayScope parameterizes the shared closure evaluation for the two
// case families.
type pathwayScope struct {
	// taskSubject names the case in the follow-up task description; empty
	// means the unqualified "sagen".
	taskSubject string
	// closeWhenBlocked lets the closure steps run even after a block task
	// was opened.
	closeWhenBlocked bool
	// cleanupMatch selects which organizational relations go after the
	// pathway closes.
	cleanupMatch func(*nexus.OrganizationRelation) bool
}

// EvaluateCompensationCase decides passivation for the single compensation
// pathway. When an active intervention blocks closure a follow-up task is
// opened, and the flow still falls through to employee detach, pathway
// close and relation cleanup afterwards - the compensation case has only
// one pathway and the cleanup is independent of the open task.
func (s *Service) EvaluateCompensationCase(ctx context.Context, form *nexus.Form, refs *nexus.ReferenceTree, citizen *nexus.Citizen) (string, error) {
	var pathwayRef *nexus.RefNode
	if root := refs.Root(s.rules.RootCase); root != nil {
		pathwayRef = root.Child(s.rules.CompensationPathway)
	}
	if pathwayRef == nil {
		return msgNoCompensationCase, nil
	}

	return s.evaluatePathway(ctx, form, refs, citizen, pathwayRef, pathwayScope{
		closeWhenBlocked: true,
		cleanupMatch: func(rel *nexus.OrganizationRelation) bool {
			return rel.Name == s.rules.CompensationCleanupRelation
		},
	})
}

// EvaluateSocialCases decides passivation for every non-compensation
// pathway under the root case, in source order. The first block wins: the
// follow-up task is opened, the remaining pathways are left for the next
// scheduled run, and the block message is returned immediately.
func (s *Service) EvaluateSocialCases(ctx context.Context, form *nexus.Form, refs *nexus.ReferenceTree, citizen *nexus.Citizen) (string, error) {
	root := refs.Root(s.rules.RootCase)
	if root == nil {
		return "", nil
	}

	for _, pathwayRef := range root.OfKind(nexus.KindPathwayReference) {
		if pathwayRef.Name == s.rules.CompensationPathway {
			continue
		}

		message, err := s.evaluatePathway(ctx, form, refs, citizen, pathwayRef, pathwayScope{
			taskSubject: pathwayRef.Name,
			cleanupMatch: func(rel *nexus.OrganizationRelation) bool {
				return slices.Contains(s.rules.SocialCleanupOrganizations, rel.Organization.Name)
			},
		})
		if err != nil {
			return "", err
		}
		if message != "" {
			return message, nil
		}
	}
	return "", nil
}

// evaluatePathway runs the closure decision for one pathway: resolve the
// responsible employee, check for active interventions, open a block task
// when one exists, then detach, close and clean up organizational
// relations per the scope.
func (s *Service) evaluatePathway(ctx context.Context, form *nexus.Form, refs *nexus.ReferenceTree, citizen *nexus.Citizen, pathwayRef *nexus.RefNode, scope pathwayScope) (string, error) {
	employee, err := s.responsibleEmployee(ctx, refs, pathwayRef.Name)
	if err != nil {
		return "", err
	}

	blocked, err := s.hasActiveInterventions(ctx, refs, pathwayRef.Name)
	if err != nil {
		return "", err
	}

	message := ""
	if blocked {
		if employee != nil {
			employee, err = s.currentDirectoryEmployee(ctx, employee)
			if err != nil {
				return "", err
			}
		}
		if employee == nil {
			return msgEmployeeNotFound, nil
		}
		if err := s.openBlockTask(ctx, form, employee, scope.taskSubject); err != nil {
			return "", err
		}
		message = msgActiveIntervention
		if !scope.closeWhenBlocked {
			return message, nil
		}
	}

	if employee != nil {
		if err := s.nexus.DetachEmployee(ctx, employee); err != nil {
			return "", err
		}
	}
	if err := s.nexus.ClosePathway(ctx, pathwayRef); err != nil {
		return "", err
	}

	relations, err := s.nexus.OrganizationRelations(ctx, citizen)
	if err != nil {
		return "", err
	}
	for i := range relations {
		if scope.cleanupMatch(&relations[i]) {
			if err := s.nexus.RemoveCitizenRelation(ctx, &relations[i]); err != nil {
				return "", err
			}
		}
	}
	return message, nil
}

// responsibleEmployee finds the case-responsible employee: first the
// professional reference scoped to the pathway, then the root-level
// assignment as the organizational default. Returns nil when neither
// exists.
func (s *Service) responsibleEmployee(ctx context.Context, refs *nexus.ReferenceTree, pathwayName string) (*nexus.Employee, error) {
	root := refs.Root(s.rules.RootCase)
	if root == nil {
		return nil, nil
	}
	if pathway := root.Child(pathwayName); pathway != nil {
		if profs := pathway.OfKind(nexus.KindProfessionalReference); len(profs) > 0 {
			return s.nexus.Employee(ctx, profs[0])
		}
	}
	if profs := root.OfKind(nexus.KindProfessionalReference); len(profs) > 0 {
		return s.nexus.Employee(ctx, profs[0])
	}
	return nil, nil
}

// currentDirectoryEmployee re-resolves an employee through the secondary
// directory. The pathway-scoped reference may point at a historic record;
// the activity id leads to the initials of the currently active entry.
// Returns nil when either hop finds nothing.
func (s *Service) currentDirectoryEmployee(ctx context.Context, employee *nexus.Employee) (*nexus.Employee, error) {
	row, err := s.directory.EmployeeByActivityID(ctx, employee.ActivityIdentifier.ActivityID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return s.nexus.EmployeeByInitials(ctx, row.PrimaryIdentifier)
}

// hasActiveInterventions reports whether any active grant hangs under the
// pathway's interventions folder, on any active root.
func (s *Service) hasActiveInterventions(ctx context.Context, refs *nexus.ReferenceTree, pathwayName string) (bool, error) {
	var grantRefs []*nexus.RefNode
	for _, root := range refs.ActiveRoots() {
		pathway := root.Child(pathwayName)
		if pathway == nil {
			continue
		}
		folder := pathway.Child(s.rules.InterventionsFolder)
		if folder == nil {
			continue
		}
		grantRefs = append(grantRefs, folder.OfKind(nexus.KindGrantReference)...)
	}
	if len(grantRefs) == 0 {
		return false, nil
	}
	grants, err := s.nexus.ActiveGrants(ctx, grantRefs)
	if err != nil {
		return false, err
	}
	return len(grants) > 0, nil
}

func (s *Service) openBlockTask(ctx context.Context, form *nexus.Form, employee *nexus.Employee, pathwayName string) error {
	subject := "sagen"
	if pathwayName != "" {
		subject = "sagen " + pathwayName
	}
	now := s.now()
	return s.nexus.CreateTask(ctx, nexus.CreateTaskRequest{
		Object:                  form,
		Type:                    s.rules.BlockTaskType,
		Title:                   s.rules.BlockTaskTitle,
		ResponsibleOrganization: employee.PrimaryOrganization.Name,
		ResponsibleEmployee:     employee,
		StartDate:               now,
		DueDate:                 now.AddDate(0, 0, blockTaskDueDays),
		Description:             fmt.Sprintf(blockDescriptionFormat, subject),
	})
}
