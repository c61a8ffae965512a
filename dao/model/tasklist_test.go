package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayColor(t *testing.T) {
	assert.Equal(t, ColorInfo{Name: "Blue", Hex: "#3b82f6"}, DisplayColor("blue"))
	assert.Equal(t, ColorInfo{Name: "Gray", Hex: "#6b7280"}, DisplayColor("gray"))

	// Unknown tokens never fail, they fall back.
	assert.Equal(t, ColorInfo{Name: "Default", Hex: "#f3f4f6"}, DisplayColor("chartreuse"))
	assert.Equal(t, ColorInfo{Name: "Default", Hex: "#f3f4f6"}, DisplayColor(""))
}

func TestKnownColor(t *testing.T) {
	assert.True(t, KnownColor("green"))
	assert.False(t, KnownColor("chartreuse"))
}

func TestDefaultTaskLists(t *testing.T) {
	defaults := DefaultTaskLists()
	assert.Len(t, defaults, 4)

	names := []string{}
	for i, def := range defaults {
		names = append(names, def.Name)
		assert.Equal(t, i+1, def.Order)
		assert.True(t, KnownColor(def.Color))
	}
	assert.Equal(t, []string{"To Do", "In Progress", "Review", "Done"}, names)

	// Only the last list is terminal.
	assert.False(t, defaults[0].IsTerminal)
	assert.False(t, defaults[1].IsTerminal)
	assert.False(t, defaults[2].IsTerminal)
	assert.True(t, defaults[3].IsTerminal)
}
