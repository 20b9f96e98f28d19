package nexus

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const activityPageSize = 50

type activityPage struct {
	Items []Activity `json:"items"`
}

// ActivityList fetches the rows of a named activity list, following server
// pages up to maxPages. Filtering on status, task type and age is the
// caller's concern.
func (c *Client) ActivityList(ctx context.Context, name string, maxPages int) ([]Activity, error) {
	var all []Activity
	for page := 1; page <= maxPages; page++ {
		target := fmt.Sprintf("/api/activities?%s", url.Values{
			"list":     {name},
			"page":     {fmt.Sprint(page)},
			"pageSize": {fmt.Sprint(activityPageSize)},
		}.Encode())

		var p activityPage
		if err := c.do(ctx, http.MethodGet, target, nil, &p); err != nil {
			return nil, err
		}
		all = append(all, p.Items...)
		if len(p.Items) < activityPageSize {
			break
		}
	}
	return all, nil
}
