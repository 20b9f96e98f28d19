package nexus

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Link is a single HAL-style hypermedia link.
type Link struct {
	Href string `json:"href"`
}

// Links maps link relations to their targets. Every resolvable entity
// carries at least a "self" relation; mutations use action relations such
// as "close" and "remove".
type Links map[string]Link

func (l Links) Href(rel string) string {
	return l[rel].Href
}

// Resolvable is anything the client can dereference into a full entity.
type Resolvable interface {
	SelfHref() string
}

// Ref is an opaque entity reference as returned inside other payloads.
type Ref struct {
	Name  string `json:"name,omitempty"`
	Links Links  `json:"_links"`
}

func (r *Ref) SelfHref() string { return r.Links.Href("self") }

// Citizen is a borger record.
type Citizen struct {
	ID                int64 `json:"id"`
	PatientIdentifier struct {
		Identifier string `json:"identifier"`
	} `json:"patientIdentifier"`
	Links Links `json:"_links"`
}

func (c *Citizen) SelfHref() string { return c.Links.Href("self") }

// Placement names the pathway a form is filed under.
type Placement struct {
	Name string `json:"name"`
}

// Form is a skema attached to a citizen. A form without a placement is not
// attached to any pathway and cannot be evaluated.
type Form struct {
	ID                 int64 `json:"id"`
	PathwayAssociation struct {
		Placement *Placement `json:"placement"`
	} `json:"pathwayAssociation"`
	Links Links `json:"_links"`
}

func (f *Form) SelfHref() string { return f.Links.Href("self") }

// Task is a case-management task (opgave).
type Task struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	DueDate string `json:"dueDate"`
	Links   Links  `json:"_links"`
}

func (t *Task) SelfHref() string { return t.Links.Href("self") }

// Employee is a professional record. ActivityIdentifier carries the internal
// id usable for the secondary directory lookup; historic records may no
// longer appear in the organizational directory.
type Employee struct {
	ID                 int64  `json:"id"`
	FullName           string `json:"fullName,omitempty"`
	Initials           string `json:"initials,omitempty"`
	ActivityIdentifier struct {
		ActivityID string `json:"activityId"`
	} `json:"activityIdentifier"`
	PrimaryOrganization struct {
		Name string `json:"name"`
	} `json:"primaryOrganization"`
	Links Links `json:"_links"`
}

func (e *Employee) SelfHref() string { return e.Links.Href("self") }

// OrganizationRelation links a citizen to an organization.
type OrganizationRelation struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Organization struct {
		Name string `json:"name"`
	} `json:"organization"`
	Links Links `json:"_links"`
}

func (r *OrganizationRelation) SelfHref() string { return r.Links.Href("self") }

// Grant is an intervention (indsats) attached to a pathway.
type Grant struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
	Links  Links  `json:"_links"`
}

func (g *Grant) SelfHref() string { return g.Links.Href("self") }

// View is a citizen pathway view (visning).
type View struct {
	Name  string `json:"name"`
	Links Links  `json:"_links"`
}

func (v *View) SelfHref() string { return v.Links.Href("self") }

// Activity is one row of an activity list, used as the immutable task
// snapshot enqueued on the work queue.
type Activity struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	Status   string       `json:"status"`
	Date     ActivityTime `json:"date"`
	DueDate  string       `json:"dueDate,omitempty"`
	Patients []Ref        `json:"patients"`
	Children []Ref        `json:"children"`
	Links    Links        `json:"_links"`
}

func (a *Activity) SelfHref() string { return a.Links.Href("self") }

// ActivityTime parses the activity timestamp variants the upstream emits:
// fractional seconds of varying width and zone offsets with or without a
// colon.
type ActivityTime struct {
	time.Time
}

var activityTimeLayouts = []string{
	"2006-01-02T15:04:05.000000-0700",
	"2006-01-02T15:04:05.000-0700",
	time.RFC3339Nano,
	time.RFC3339,
}

func (t *ActivityTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range activityTimeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unsupported activity timestamp %q", s)
}

func (t ActivityTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format("2006-01-02T15:04:05.000-0700"))
}

// DueDateLayout is the date-only format used for task due dates.
const DueDateLayout = "2006-01-02"

// joinURL glues a base URL and a path without doubling slashes.
func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
