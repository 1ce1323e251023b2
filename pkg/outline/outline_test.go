package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputePosition(t *testing.T) {
	parts := []string{
		"p/s/d/workitem_A-1",
		"p/s/d/heading_A-2",
		"p/s/d/workitem_A-3",
	}

	t.Run("append without reference", func(t *testing.T) {
		assert.Equal(t, 4, ComputePosition(parts, ""))
		assert.Equal(t, 1, ComputePosition(nil, ""))
	})

	t.Run("insert after referenced part", func(t *testing.T) {
		assert.Equal(t, 2, ComputePosition(parts, "p/s/d/workitem_A-1"))
		assert.Equal(t, 3, ComputePosition(parts, "p/s/d/heading_A-2"))
		assert.Equal(t, 4, ComputePosition(parts, "p/s/d/workitem_A-3"))
	})

	t.Run("dangling reference appends", func(t *testing.T) {
		assert.Equal(t, 4, ComputePosition(parts, "p/s/d/workitem_GONE"))
	})
}

func TestComputeOutline(t *testing.T) {
	tests := []struct {
		name          string
		position      int
		workItemType  string
		parentOutline string
		want          string
	}{
		{"flat item position 1", 1, "requirement", "", "FC-1.1-1"},
		{"flat item position 10", 10, "requirement", "", "FC-1.1-10"},
		{"flat item position 11", 11, "requirement", "", "FC-1.2-1"},
		{"flat item position 13", 13, "requirement", "", "FC-1.2-3"},
		{"flat item position 100", 100, "requirement", "", "FC-1.10-10"},
		{"flat item position 101", 101, "requirement", "", "FC-2.1-1"},
		{"flat item position 115", 115, "functionalrequirement", "", "FC-2.2-5"},
		{"heading position 1", 1, TypeHeading, "", "1.1"},
		{"heading position 10", 10, TypeHeading, "", "1.10"},
		{"heading position 11", 11, TypeHeading, "", "2.1"},
		{"heading position 41", 41, TypeHeading, "", "5.1"},
		{"first-level child", 3, "requirement", "4.1", "4.1-3"},
		{"second-level child", 2, "requirement", "4.1-1", "4.1-1.2"},
		{"heading type defers to parent", 5, TypeHeading, "2.3", "2.3-5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeOutline(tt.position, tt.workItemType, tt.parentOutline)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChildOutline(t *testing.T) {
	assert.Equal(t, "4.1-1", ChildOutline("4.1", 0))
	assert.Equal(t, "4.1-2", ChildOutline("4.1", 1))
	assert.Equal(t, "2.10-7", ChildOutline("2.10", 6))
}

func TestIsChildOf(t *testing.T) {
	assert.True(t, IsChildOf("4.1-1", "4.1"))
	assert.True(t, IsChildOf("4.1-12", "4.1"))
	assert.False(t, IsChildOf("4.10-1", "4.1"))
	assert.False(t, IsChildOf("4.1", "4.1"))
}

func TestHeadingLocalID(t *testing.T) {
	t.Run("document-prefixed part ID", func(t *testing.T) {
		local, ok := HeadingLocalID("Python/Functional Layer/Functional Concept/heading_PYTH-9397")
		assert.True(t, ok)
		assert.Equal(t, "PYTH-9397", local)
	})

	t.Run("bare heading reference", func(t *testing.T) {
		local, ok := HeadingLocalID("heading_PYTH-9397")
		assert.True(t, ok)
		assert.Equal(t, "PYTH-9397", local)
	})

	t.Run("not a heading", func(t *testing.T) {
		_, ok := HeadingLocalID("p/s/d/workitem_PYTH-9001")
		assert.False(t, ok)
	})

	t.Run("empty tail", func(t *testing.T) {
		_, ok := HeadingLocalID("p/s/d/heading_")
		assert.False(t, ok)
	})
}
