package nexus

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/odense-rpa/passivering-af-ungesager/pkg/cerr"
)

// OrganizationRelations lists a citizen's organizational relations.
func (c *Client) OrganizationRelations(ctx context.Context, citizen *Citizen) ([]OrganizationRelation, error) {
	href := citizen.Links.Href("patientOrganizations")
	if href == "" {
		return nil, cerr.NewError(cerr.Internal, "citizen has no patientOrganizations link", nil)
	}
	var relations []OrganizationRelation
	if err := c.do(ctx, http.MethodGet, href, nil, &relations); err != nil {
		return nil, err
	}
	return relations, nil
}

// RemoveCitizenRelation removes the citizen from one organizational relation.
func (c *Client) RemoveCitizenRelation(ctx context.Context, relation *OrganizationRelation) error {
	href := relation.Links.Href("remove")
	if href == "" {
		href = relation.SelfHref()
	}
	if href == "" {
		return cerr.NewError(cerr.Internal, "organization relation has no removable link", nil)
	}
	return c.do(ctx, http.MethodDelete, href, nil, nil)
}

// EmployeeByInitials looks up the live employee record in the
// organizational directory. Returns nil when no entry matches the initials.
func (c *Client) EmployeeByInitials(ctx context.Context, initials string) (*Employee, error) {
	target := fmt.Sprintf("/api/organizations/professionals?%s", url.Values{
		"initials": {initials},
	}.Encode())
	var employees []Employee
	if err := c.do(ctx, http.MethodGet, target, nil, &employees); err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return nil, nil
	}
	return &employees[0], nil
}
