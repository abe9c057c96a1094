package graphcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelationshipPatternResolvedHopsForPlainRelationship(t *testing.T) {
	r := &RelationshipPattern{}
	assert.Equal(t, 1, r.ResolvedMinHops())
	assert.Equal(t, 1, r.ResolvedMaxHops())
	assert.False(t, r.IsVariableLength())
}

func TestRelationshipPatternResolvedHopsForUnboundedStar(t *testing.T) {
	r := &RelationshipPattern{HasStar: true}
	assert.Equal(t, 1, r.ResolvedMinHops())
	assert.Equal(t, -1, r.ResolvedMaxHops())
	assert.True(t, r.IsVariableLength())
}

func TestRelationshipPatternResolvedHopsForExplicitRange(t *testing.T) {
	min, max := 2, 5
	r := &RelationshipPattern{HasStar: true, MinHops: &min, MaxHops: &max}
	assert.Equal(t, 2, r.ResolvedMinHops())
	assert.Equal(t, 5, r.ResolvedMaxHops())
	assert.True(t, r.IsVariableLength())
}

func TestRelationshipPatternStarOneDotDotOneIsStillVariableLengthFalse(t *testing.T) {
	one := 1
	r := &RelationshipPattern{HasStar: true, MinHops: &one, MaxHops: &one}
	assert.False(t, r.IsVariableLength())
}

func TestPathPatternCloneIsIndependent(t *testing.T) {
	min := 1
	original := &PathPattern{
		Start: NodePattern{Variable: "a", Labels: []string{"Person"}, Properties: map[string]any{"age": 30}},
		Segments: []PathSegment{
			{
				Rel:  RelationshipPattern{Type: "KNOWS", HasStar: true, MinHops: &min},
				Node: NodePattern{Variable: "b", Labels: []string{"Person"}},
			},
		},
	}

	clone := original.Clone()
	clone.Start.Labels[0] = "Mutated"
	clone.Start.Properties["age"] = 99
	*clone.Segments[0].Rel.MinHops = 7

	assert.Equal(t, "Person", original.Start.Labels[0])
	assert.Equal(t, 30, original.Start.Properties["age"])
	assert.Equal(t, 1, *original.Segments[0].Rel.MinHops)
}
