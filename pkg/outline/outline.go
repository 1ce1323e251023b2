// Package outline computes document positions and hierarchical outline
// labels for parts placed inside a document.
//
// The emulated service numbers placed parts three ways: structural children
// extend their parent's outline ("4.1-1", "4.1-1.2"), headings get a
// "{major}.{minor}" section number, and ordinary items get the flat
// "FC-{section}.{subsection}-{item}" requirement label. All arithmetic is
// integer and positions are 1-based.
package outline

import (
	"fmt"
	"strings"
)

// TypeHeading is the work item type that receives section-style numbering.
const TypeHeading = "heading"

// headingTag marks part identifiers that reference a heading work item
// ("{document}/heading_{localID}").
const headingTag = "heading_"

// ComputePosition returns the 1-based rank for a new part.
//
// Without a previous-part reference the new part is appended. With one, the
// part list is scanned for the referenced identifier and the new part slots
// in immediately after it. A dangling reference falls back to append; the
// real service tolerates stale previous-part IDs and clients depend on it.
func ComputePosition(partIDs []string, previousPartID string) int {
	if previousPartID == "" {
		return len(partIDs) + 1
	}
	for i, id := range partIDs {
		if id == previousPartID {
			return i + 2
		}
	}
	return len(partIDs) + 1
}

// ComputeOutline returns the outline label for a part placed at position.
//
// parentOutline is the outline of the structural parent work item, or ""
// when the item has none. Parent-relative labels extend the parent with
// "-{position}" at the first nesting level and ".{position}" below it.
func ComputeOutline(position int, workItemType, parentOutline string) string {
	if parentOutline != "" {
		if strings.Contains(parentOutline, "-") {
			return fmt.Sprintf("%s.%d", parentOutline, position)
		}
		return fmt.Sprintf("%s-%d", parentOutline, position)
	}

	if workItemType == TypeHeading {
		major := (position-1)/10 + 1
		minor := (position-1)%10 + 1
		return fmt.Sprintf("%d.%d", major, minor)
	}

	section := (position-1)/100 + 1
	subsection := ((position-1)%100)/10 + 1
	item := (position-1)%10 + 1
	return fmt.Sprintf("FC-%d.%d-%d", section, subsection, item)
}

// ChildOutline returns the label for the next item nested directly under a
// heading whose outline is headerOutline, given the number of children that
// already carry a "{headerOutline}-" prefix.
func ChildOutline(headerOutline string, existingChildren int) string {
	return fmt.Sprintf("%s-%d", headerOutline, existingChildren+1)
}

// IsChildOf reports whether label is nested under headerOutline.
func IsChildOf(label, headerOutline string) bool {
	return strings.HasPrefix(label, headerOutline+"-")
}

// HeadingLocalID extracts the local work item ID from a heading-tagged part
// identifier. Returns false when the identifier carries no heading tag.
func HeadingLocalID(partID string) (string, bool) {
	i := strings.LastIndex(partID, headingTag)
	if i < 0 {
		return "", false
	}
	local := partID[i+len(headingTag):]
	if local == "" {
		return "", false
	}
	return local, true
}
