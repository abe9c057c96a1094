package graphcore

// Direction constrains how a RelationshipPattern traverses an edge relative
// to the node it is anchored from.
type Direction int

const (
	// DirectionOutgoing matches edges whose Source is the anchor node.
	DirectionOutgoing Direction = iota
	// DirectionIncoming matches edges whose Target is the anchor node.
	DirectionIncoming
	// DirectionBoth matches either.
	DirectionBoth
)

// NodePattern constrains which nodes a segment of a path pattern may bind.
// An empty Variable means the node is anonymous (matched but not bound).
type NodePattern struct {
	Variable   string
	Labels     []string
	Properties map[string]any
}

// RelationshipPattern constrains which edges a path segment may traverse.
//
// MinHops defaults to 1; MaxHops defaults to MinHops for a fixed-length
// segment or is left unbounded (nil) when the grammar's "*" hop range omits
// an upper bound. A segment is "variable" iff (MinHops, MaxHops) != (1, 1).
type RelationshipPattern struct {
	Variable   string
	Type       string // empty means any relationship type
	Properties map[string]any
	Direction  Direction
	// HasStar reports whether the grammar's "*" hop range was present. Its
	// absence means a plain single-hop relationship regardless of what
	// MinHops/MaxHops happen to hold — a hop range only ever appears after
	// a "*" in the grammar.
	HasStar bool
	MinHops *int
	MaxHops *int // nil means unbounded when HasStar is true
}

// ResolvedMinHops returns the effective minimum hop count: 1 for a plain
// relationship, MinHops (defaulting to 1) for a "*"-form relationship.
func (r *RelationshipPattern) ResolvedMinHops() int {
	if !r.HasStar {
		return 1
	}
	if r.MinHops != nil {
		return *r.MinHops
	}
	return 1
}

// ResolvedMaxHops returns the effective maximum hop count, or -1 to mean
// unbounded (only possible for a "*"-form relationship with no upper bound).
func (r *RelationshipPattern) ResolvedMaxHops() int {
	if !r.HasStar {
		return 1
	}
	if r.MaxHops != nil {
		return *r.MaxHops
	}
	return -1
}

// IsVariableLength reports whether this segment allows more than one
// traversal shape, i.e. (min, max) != (1, 1).
func (r *RelationshipPattern) IsVariableLength() bool {
	if !r.HasStar {
		return false
	}
	return r.ResolvedMinHops() != 1 || r.ResolvedMaxHops() != 1
}

// PathSegment is one (relationship, node) pair following the start node of a
// PathPattern.
type PathSegment struct {
	Rel  RelationshipPattern
	Node NodePattern
}

// PathPattern is a start node pattern plus an ordered list of segments, the
// unit the matcher and the MATCH clause's comma-separated list operate on.
type PathPattern struct {
	Start    NodePattern
	Segments []PathSegment
}

// Clone returns a deep copy of the pattern so enrichPatternWithBindings can
// hand back a modified copy without mutating the template.
func (p *PathPattern) Clone() *PathPattern {
	clonedStart := cloneNodePattern(p.Start)
	segs := make([]PathSegment, len(p.Segments))
	for i, s := range p.Segments {
		segs[i] = PathSegment{
			Rel:  cloneRelPattern(s.Rel),
			Node: cloneNodePattern(s.Node),
		}
	}
	return &PathPattern{Start: clonedStart, Segments: segs}
}

func cloneNodePattern(n NodePattern) NodePattern {
	labels := make([]string, len(n.Labels))
	copy(labels, n.Labels)
	props := make(map[string]any, len(n.Properties))
	for k, v := range n.Properties {
		props[k] = v
	}
	return NodePattern{Variable: n.Variable, Labels: labels, Properties: props}
}

func cloneRelPattern(r RelationshipPattern) RelationshipPattern {
	props := make(map[string]any, len(r.Properties))
	for k, v := range r.Properties {
		props[k] = v
	}
	out := RelationshipPattern{
		Variable:   r.Variable,
		Type:       r.Type,
		Properties: props,
		Direction:  r.Direction,
		HasStar:    r.HasStar,
	}
	if r.MinHops != nil {
		v := *r.MinHops
		out.MinHops = &v
	}
	if r.MaxHops != nil {
		v := *r.MaxHops
		out.MaxHops = &v
	}
	return out
}
