package nexus

// Reference node kinds as tagged by the case-management system. Matching on
// the kind tag replaces path-pattern string matching over node names.
const (
	KindPathwayReference      = "patientPathwayReference"
	KindProfessionalReference = "professionalReference"
	KindGrantReference        = "basketGrantReference"
)

// RefNode is one node of a citizen's pathway reference tree. Pathway nodes
// carry a pathway status; leaf references (professionals, grants) do not.
type RefNode struct {
	Name          string     `json:"name"`
	Kind          string     `json:"type"`
	PathwayStatus string     `json:"pathwayStatus,omitempty"`
	Children      []*RefNode `json:"children,omitempty"`
	Links         Links      `json:"_links"`
}

func (n *RefNode) SelfHref() string { return n.Links.Href("self") }

// ActivePathway reports whether the node is part of an active pathway.
// Nodes without a pathway status (leaf references) are always considered
// active.
func (n *RefNode) ActivePathway() bool {
	return n.PathwayStatus == "" || n.PathwayStatus == "ACTIVE"
}

// Child returns the first active direct child with the given name.
func (n *RefNode) Child(name string) *RefNode {
	for _, c := range n.Children {
		if c.Name == name && c.ActivePathway() {
			return c
		}
	}
	return nil
}

// OfKind returns the active direct children with the given kind tag.
func (n *RefNode) OfKind(kind string) []*RefNode {
	var out []*RefNode
	for _, c := range n.Children {
		if c.Kind == kind && c.ActivePathway() {
			out = append(out, c)
		}
	}
	return out
}

// ReferenceTree is the full reference tree of a citizen view.
type ReferenceTree struct {
	Roots []*RefNode
}

// Root returns the first active root node with the given name.
func (t *ReferenceTree) Root(name string) *RefNode {
	for _, r := range t.Roots {
		if r.Name == name && r.ActivePathway() {
			return r
		}
	}
	return nil
}

// ActiveRoots returns all active root nodes, regardless of name.
func (t *ReferenceTree) ActiveRoots() []*RefNode {
	var out []*RefNode
	for _, r := range t.Roots {
		if r.ActivePathway() {
			out = append(out, r)
		}
	}
	return out
}
