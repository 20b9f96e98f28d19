package nexus

import (
	"context"
	"net/http"

	"github.com/odense-rpa/passivering-af-ungesager/pkg/cerr"
)

type preferences struct {
	CitizenPathway []View `json:"CITIZEN_PATHWAY"`
}

// CitizenView finds the named pathway view among the citizen's preferences.
// Returns nil when the citizen has no view with that name; the caller
// decides whether that is fatal.
func (c *Client) CitizenView(ctx context.Context, citizen *Citizen, name string) (*View, error) {
	href := citizen.Links.Href("patientPreferences")
	if href == "" {
		return nil, cerr.NewError(cerr.Internal, "citizen has no preferences link", nil)
	}
	var prefs preferences
	if err := c.do(ctx, http.MethodGet, href, nil, &prefs); err != nil {
		return nil, err
	}
	for i := range prefs.CitizenPathway {
		if prefs.CitizenPathway[i].Name == name {
			return &prefs.CitizenPathway[i], nil
		}
	}
	return nil, nil
}

// ViewReferences loads the full reference tree of a pathway view.
func (c *Client) ViewReferences(ctx context.Context, view *View) (*ReferenceTree, error) {
	var roots []*RefNode
	if err := c.Resolve(ctx, view, &roots); err != nil {
		return nil, err
	}
	return &ReferenceTree{Roots: roots}, nil
}
