package nexus

import "context"

// ActiveGrants resolves a set of grant reference nodes and returns the ones
// whose intervention is still active.
func (c *Client) ActiveGrants(ctx context.Context, refs []*RefNode) ([]Grant, error) {
	var active []Grant
	for _, ref := range refs {
		grant, err := ResolveAs[Grant](ctx, c, ref)
		if err != nil {
			return nil, err
		}
		if grant.Active {
			active = append(active, *grant)
		}
	}
	return active, nil
}
