// Package store holds the in-memory resource graph of the emulator:
// projects, documents, work items and users, plus the document structure
// and visibility rules that tie them together. All state lives for the
// process lifetime behind one coarse RW lock; reads return copies.
package store

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/alm-forge/stanza/pkg/outline"
)

// Store is the central in-memory data store.
type Store struct {
	mu  sync.RWMutex
	log hclog.Logger

	projects  map[string]*Project
	documents map[string]*Document
	workItems map[string]*WorkItem
	users     map[string]*User

	// insertion order, for deterministic listings
	projectIDs  []string
	workItemIDs []string

	// per-project work item id counters, seeded lazily from existing ids
	counters map[string]int
}

// New builds an empty store.
func New(log hclog.Logger) *Store {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Store{
		log:       log.Named("store"),
		projects:  make(map[string]*Project),
		documents: make(map[string]*Document),
		workItems: make(map[string]*WorkItem),
		users:     make(map[string]*User),
		counters:  make(map[string]int),
	}
}

// ---- projects ----

// ListProjects returns all projects in insertion order.
func (s *Store) ListProjects() []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Project, 0, len(s.projectIDs))
	for _, id := range s.projectIDs {
		out = append(out, *s.projects[id].clone())
	}
	return out
}

// GetProject looks up a project by id.
func (s *Store) GetProject(id string) (Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return Project{}, NewNotFound("projects", id)
	}
	return *p.clone(), nil
}

// CreateProject stores a new project. Duplicate ids are rejected.
func (s *Store) CreateProject(p Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.projects[p.ID]; exists {
		return NewValidation("Project with id '%s' already exists", p.ID)
	}
	now := time.Now().UTC()
	if p.Created.IsZero() {
		p.Created = now
	}
	if p.Updated.IsZero() {
		p.Updated = now
	}
	s.projects[p.ID] = p.clone()
	s.projectIDs = append(s.projectIDs, p.ID)
	return nil
}

// UpdateProject applies a mutation to a project under the write lock.
func (s *Store) UpdateProject(id string, apply func(*Project) error) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return Project{}, NewNotFound("projects", id)
	}
	if err := apply(p); err != nil {
		return Project{}, err
	}
	p.Updated = time.Now().UTC()
	return *p.clone(), nil
}

// DeleteProject removes a project. Its documents and work items are left
// in place; the delete is shallow on purpose.
func (s *Store) DeleteProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return NewNotFound("projects", id)
	}
	delete(s.projects, id)
	for i, pid := range s.projectIDs {
		if pid == id {
			s.projectIDs = append(s.projectIDs[:i], s.projectIDs[i+1:]...)
			break
		}
	}
	return nil
}

// ---- users ----

// GetUser looks up a user by id.
func (s *Store) GetUser(id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, NewNotFound("users", id)
	}
	return *u, nil
}

// PutUser stores a user.
func (s *Store) PutUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = &u
}

// ---- documents ----

// GetDocument looks up a document by its full "{project}/{space}/{name}" id.
func (s *Store) GetDocument(id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.documents[id]
	if !ok {
		return Document{}, NewNotFound("documents", id)
	}
	return *d.clone(), nil
}

// ListDocuments returns all documents sorted by id.
func (s *Store) ListDocuments() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Document, 0, len(s.documents))
	for _, d := range s.documents {
		out = append(out, *d.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CreateDocument stores a new document. Duplicate ids are rejected.
func (s *Store) CreateDocument(d Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.documents[d.ID]; exists {
		return NewValidation("Document with id '%s' already exists", d.ID)
	}
	now := time.Now().UTC()
	if d.Created.IsZero() {
		d.Created = now
	}
	if d.Updated.IsZero() {
		d.Updated = now
	}
	s.documents[d.ID] = d.clone()
	return nil
}

// UpdateDocument applies a mutation to a document under the write lock.
func (s *Store) UpdateDocument(id string, apply func(*Document) error) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.documents[id]
	if !ok {
		return Document{}, NewNotFound("documents", id)
	}
	if err := apply(d); err != nil {
		return Document{}, err
	}
	d.Updated = time.Now().UTC()
	return *d.clone(), nil
}

// DeleteDocument removes a document, its parts, and the module association
// of every work item that referenced it. Those items return to the
// unassociated state.
func (s *Store) DeleteDocument(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return NewNotFound("documents", id)
	}
	delete(s.documents, id)
	for _, wi := range s.workItems {
		if wi.Module == id {
			wi.Module = ""
			wi.InDocument = false
			wi.Position = 0
			wi.Outline = ""
		}
	}
	return nil
}

// ---- work items ----

// GetWorkItem looks up a work item by its full "{project}/{local}" id.
func (s *Store) GetWorkItem(id string) (WorkItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wi, ok := s.workItems[id]
	if !ok {
		return WorkItem{}, NewNotFound("workitems", id)
	}
	return *wi.clone(), nil
}

// CreateWorkItem stores a new work item. A pre-set Module puts the item in
// the recycle bin of that document; items are never created visible.
func (s *Store) CreateWorkItem(wi WorkItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.workItems[wi.ID]; exists {
		return NewValidation("Work item with id '%s' already exists", wi.ID)
	}
	now := time.Now().UTC()
	if wi.Created.IsZero() {
		wi.Created = now
	}
	if wi.Updated.IsZero() {
		wi.Updated = now
	}
	wi.InDocument = false
	wi.Position = 0
	wi.Outline = ""
	if wi.Module != "" {
		if _, ok := s.documents[wi.Module]; !ok {
			s.log.Warn("work item references unknown module",
				"workitem", wi.ID,
				"module", wi.Module,
			)
		}
	}
	s.workItems[wi.ID] = wi.clone()
	s.workItemIDs = append(s.workItemIDs, wi.ID)
	return nil
}

// UpdateWorkItem applies a mutation to a work item under the write lock.
func (s *Store) UpdateWorkItem(id string, apply func(*WorkItem) error) (WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wi, ok := s.workItems[id]
	if !ok {
		return WorkItem{}, NewNotFound("workitems", id)
	}
	if err := apply(wi); err != nil {
		return WorkItem{}, err
	}
	wi.Updated = time.Now().UTC()
	return *wi.clone(), nil
}

// DeleteWorkItem removes a work item and its document part, if placed.
func (s *Store) DeleteWorkItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wi, ok := s.workItems[id]
	if !ok {
		return NewNotFound("workitems", id)
	}
	if wi.Module != "" {
		if doc, ok := s.documents[wi.Module]; ok {
			for i, p := range doc.Parts {
				if p.WorkItem == id {
					doc.Parts = append(doc.Parts[:i], doc.Parts[i+1:]...)
					break
				}
			}
		}
	}
	delete(s.workItems, id)
	for i, wid := range s.workItemIDs {
		if wid == id {
			s.workItemIDs = append(s.workItemIDs[:i], s.workItemIDs[i+1:]...)
			break
		}
	}
	return nil
}

// MoveWorkItem redeclares a work item's module relationship. Placement is
// never granted here; a moved item lands in the target document's recycle
// bin until it is added through the document parts endpoint.
func (s *Store) MoveWorkItem(id, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wi, ok := s.workItems[id]
	if !ok {
		return NewNotFound("workitems", id)
	}
	if _, ok := s.documents[documentID]; !ok {
		return NewNotFound("documents", documentID)
	}
	if wi.Module != "" && wi.Module != documentID {
		if doc, ok := s.documents[wi.Module]; ok {
			for i, p := range doc.Parts {
				if p.WorkItem == id {
					doc.Parts = append(doc.Parts[:i], doc.Parts[i+1:]...)
					break
				}
			}
		}
	}
	wi.MoveToModule(documentID)
	wi.Updated = time.Now().UTC()
	return nil
}

// SetParent records a parent weak reference on a work item. The parent
// must exist; visibility is unaffected.
func (s *Store) SetParent(id, parentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wi, ok := s.workItems[id]
	if !ok {
		return NewNotFound("workitems", id)
	}
	if _, ok := s.workItems[parentID]; !ok {
		return NewNotFound("workitems", parentID)
	}
	wi.Parent = parentID
	wi.Updated = time.Now().UTC()
	return nil
}

// QueryWorkItems lists work items, optionally scoped to a project and
// filtered by a query string. The query grammar is deliberately small:
// the first recognized clause of "module.id:", "type:" or "status:" wins.
func (s *Store) QueryWorkItems(query, projectID string) []WorkItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []WorkItem
	for _, id := range s.workItemIDs {
		wi := s.workItems[id]
		if projectID != "" && wi.Project != projectID {
			continue
		}
		if !matchQuery(wi, query) {
			continue
		}
		out = append(out, *wi.clone())
	}
	return out
}

func matchQuery(wi *WorkItem, query string) bool {
	if query == "" {
		return true
	}
	if _, after, ok := strings.Cut(query, "module.id:"); ok {
		return wi.Module == strings.TrimSpace(after)
	}
	if _, after, ok := strings.Cut(query, "type:"); ok {
		return wi.Type == firstToken(after)
	}
	if _, after, ok := strings.Cut(query, "status:"); ok {
		return wi.Status == firstToken(after)
	}
	return true
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// NextWorkItemID synthesizes the next "{prefix}-{n}" local id for a
// project. The counter is seeded from the highest existing numeric suffix
// carrying the project's tracker prefix.
func (s *Store) NextWorkItemID(projectID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return "", NewNotFound("projects", projectID)
	}
	prefix := p.TrackerPrefix
	if prefix == "" {
		prefix = strings.ToUpper(projectID)
	}

	if _, seeded := s.counters[projectID]; !seeded {
		max := 0
		for id, wi := range s.workItems {
			if wi.Project != projectID {
				continue
			}
			local := id[strings.Index(id, "/")+1:]
			rest, ok := strings.CutPrefix(local, prefix+"-")
			if !ok {
				continue
			}
			if n, err := strconv.Atoi(rest); err == nil && n > max {
				max = n
			}
		}
		s.counters[projectID] = max
	}

	s.counters[projectID]++
	return prefix + "-" + strconv.Itoa(s.counters[projectID]), nil
}

// ---- document structure ----

// ListVisibleParts returns a document's parts in document order, filtered
// to the parts whose work item is actually visible. Heading parts are
// always included.
func (s *Store) ListVisibleParts(documentID string) ([]Part, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[documentID]
	if !ok {
		return nil, NewNotFound("documents", documentID)
	}

	out := make([]Part, 0, len(doc.Parts))
	for _, p := range doc.Parts {
		wi, ok := s.workItems[p.WorkItem]
		if !ok {
			continue
		}
		if wi.InDocument || strings.EqualFold(wi.Type, outline.TypeHeading) {
			out = append(out, p)
		}
	}
	return out, nil
}

// InsertWorkItemPart places a work item into a document: the second step
// of the two-step association. The whole placement runs under one write
// lock because the outline of a heading-relative insertion depends on a
// global count of existing sibling outlines.
//
// Subsequent parts keep their recorded positions shifted by one; their
// outlines are NOT recomputed.
func (s *Store) InsertWorkItemPart(documentID, workItemID, previousPartID string) (Part, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[documentID]
	if !ok {
		return Part{}, NewNotFound("documents", documentID)
	}
	wi, ok := s.workItems[workItemID]
	if !ok {
		return Part{}, NewNotFound("workitems", workItemID)
	}

	position := outline.ComputePosition(doc.partIDs(), previousPartID)

	parentOutline := ""
	if wi.Parent != "" {
		if parent, ok := s.workItems[wi.Parent]; ok && parent.InDocument {
			parentOutline = parent.Outline
		}
	}
	label := outline.ComputeOutline(position, wi.Type, parentOutline)

	// A previousPart reference to a heading overrides the computed label
	// with heading-relative numbering.
	if headingLocal, ok := outline.HeadingLocalID(previousPartID); ok {
		headingID := headingLocal
		if !strings.Contains(headingID, "/") {
			headingID = doc.Project + "/" + headingID
		}
		if heading, ok := s.workItems[headingID]; ok && heading.Outline != "" {
			children := 0
			for _, other := range s.workItems {
				if outline.IsChildOf(other.Outline, heading.Outline) {
					children++
				}
			}
			label = outline.ChildOutline(heading.Outline, children)
		}
	}

	if err := wi.PlaceInDocument(documentID, position, label); err != nil {
		return Part{}, err
	}
	wi.Updated = time.Now().UTC()

	part := Part{
		ID:           doc.partIDFor(wi),
		WorkItem:     workItemID,
		Position:     position,
		PreviousPart: previousPartID,
		CreatedAt:    time.Now().UTC(),
	}

	idx := position - 1
	if idx > len(doc.Parts) {
		idx = len(doc.Parts)
	}
	doc.Parts = append(doc.Parts, Part{})
	copy(doc.Parts[idx+1:], doc.Parts[idx:])
	doc.Parts[idx] = part
	for i := idx + 1; i < len(doc.Parts); i++ {
		doc.Parts[i].Position++
		if other, ok := s.workItems[doc.Parts[i].WorkItem]; ok && other.InDocument {
			other.Position++
		}
	}

	s.log.Info("placed work item in document",
		"workitem", workItemID,
		"document", documentID,
		"position", position,
		"outline", label,
	)
	return part, nil
}

// RecycleBin returns the work items associated with a document but not
// placed in it. The bin is derived on every call.
func (s *Store) RecycleBin(documentID string) []WorkItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []WorkItem
	for _, id := range s.workItemIDs {
		wi := s.workItems[id]
		if wi.Module == documentID && wi.InRecycleBin() {
			out = append(out, *wi.clone())
		}
	}
	return out
}
