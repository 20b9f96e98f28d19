package nexus

import (
	"context"
	"net/http"

	"github.com/odense-rpa/passivering-af-ungesager/pkg/cerr"
)

// ClosePathway closes the pathway behind a pathway reference node. Closing
// an already-closed pathway is accepted upstream, which keeps reruns
// idempotent.
func (c *Client) ClosePathway(ctx context.Context, ref *RefNode) error {
	href := ref.Links.Href("close")
	if href == "" {
		return cerr.NewError(cerr.Internal, "pathway reference has no close link", nil)
	}
	return c.do(ctx, http.MethodPost, href, nil, nil)
}

// DetachEmployee removes an employee's assignment from the pathway the
// employee record was resolved through.
func (c *Client) DetachEmployee(ctx context.Context, employee *Employee) error {
	href := employee.Links.Href("removeFromPathway")
	if href == "" {
		return cerr.NewError(cerr.Internal, "employee has no removeFromPathway link", nil)
	}
	return c.do(ctx, http.MethodDelete, href, nil, nil)
}
