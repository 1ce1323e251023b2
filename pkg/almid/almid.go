package almid

import (
	"fmt"
	"strings"
)

// DocumentID is the composite identifier of a document: project, space and
// document name joined with slashes. Space and document names may contain
// characters that are not URL-safe (e.g. "Functional Layer"); the joined
// form is still the canonical wire identifier.
type DocumentID struct {
	Project string
	Space   string
	Name    string
}

// NewDocumentID creates a document ID from its parts.
func NewDocumentID(project, space, name string) DocumentID {
	return DocumentID{Project: project, Space: space, Name: name}
}

// ParseDocumentID parses the canonical "{project}/{space}/{name}" form.
// The document name may itself contain slashes; the first two segments are
// authoritative and the remainder is the name.
func ParseDocumentID(s string) (DocumentID, error) {
	parts := strings.SplitN(s, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return DocumentID{}, fmt.Errorf("invalid document ID %q: want project/space/name", s)
	}
	return DocumentID{Project: parts[0], Space: parts[1], Name: parts[2]}, nil
}

// String returns the canonical slash-joined form.
func (d DocumentID) String() string {
	return d.Project + "/" + d.Space + "/" + d.Name
}

// WorkItemID is the composite identifier of a work item: project ID plus
// the project-local tracker ID.
type WorkItemID struct {
	Project string
	Local   string
}

// NewWorkItemID creates a work item ID from its parts.
func NewWorkItemID(project, local string) WorkItemID {
	return WorkItemID{Project: project, Local: local}
}

// ParseWorkItemID parses the canonical "{project}/{localID}" form. A bare
// local ID (no slash) is accepted when defaultProject is non-empty; the
// real service resolves such references relative to the enclosing project.
func ParseWorkItemID(s, defaultProject string) (WorkItemID, error) {
	if s == "" {
		return WorkItemID{}, fmt.Errorf("work item ID cannot be empty")
	}
	if !strings.Contains(s, "/") {
		if defaultProject == "" {
			return WorkItemID{}, fmt.Errorf("invalid work item ID %q: want project/localID", s)
		}
		return WorkItemID{Project: defaultProject, Local: s}, nil
	}
	parts := strings.SplitN(s, "/", 2)
	if parts[0] == "" || parts[1] == "" {
		return WorkItemID{}, fmt.Errorf("invalid work item ID %q: want project/localID", s)
	}
	return WorkItemID{Project: parts[0], Local: parts[1]}, nil
}

// String returns the canonical slash-joined form.
func (w WorkItemID) String() string {
	return w.Project + "/" + w.Local
}

