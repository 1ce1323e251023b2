package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML fixture format. Tests and deployments can point the
// server at a small fixture instead of the built-in dataset.
type SeedFile struct {
	Projects []SeedProject `yaml:"projects"`
	Users    []SeedUser    `yaml:"users"`
}

// SeedProject is a project with its documents and work items inline.
type SeedProject struct {
	ID            string         `yaml:"id"`
	Name          string         `yaml:"name"`
	Description   string         `yaml:"description"`
	TrackerPrefix string         `yaml:"tracker_prefix"`
	Documents     []SeedDocument `yaml:"documents"`
	WorkItems     []SeedWorkItem `yaml:"workitems"`
}

// SeedDocument is one document fixture, identified within its project by
// space and name.
type SeedDocument struct {
	Space string `yaml:"space"`
	Name  string `yaml:"name"`
	Title string `yaml:"title"`
	Type  string `yaml:"type"`
}

// SeedWorkItem is one work item fixture. Module, when set, is the
// "{space}/{name}" suffix of a document in the same project; seeded items
// start in that document's recycle bin, never visible.
type SeedWorkItem struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Type        string `yaml:"type"`
	Status      string `yaml:"status"`
	Priority    string `yaml:"priority"`
	Severity    string `yaml:"severity"`
	Description string `yaml:"description"`
	Module      string `yaml:"module"`
}

// Validate checks fixture integrity, accumulating every problem.
func (sf *SeedFile) Validate() error {
	var result *multierror.Error
	for _, p := range sf.Projects {
		if p.ID == "" {
			result = multierror.Append(result, fmt.Errorf("project with empty id"))
			continue
		}
		docs := map[string]bool{}
		for _, d := range p.Documents {
			if d.Space == "" || d.Name == "" {
				result = multierror.Append(result,
					fmt.Errorf("project %s: document missing space or name", p.ID))
				continue
			}
			docs[d.Space+"/"+d.Name] = true
		}
		for _, wi := range p.WorkItems {
			if wi.ID == "" || wi.Title == "" {
				result = multierror.Append(result,
					fmt.Errorf("project %s: work item missing id or title", p.ID))
			}
			if wi.Module != "" && !docs[wi.Module] {
				result = multierror.Append(result,
					fmt.Errorf("project %s: work item %s references unknown document %s",
						p.ID, wi.ID, wi.Module))
			}
		}
	}
	return result.ErrorOrNil()
}

// LoadSeedFile reads and validates a YAML fixture from fs.
func LoadSeedFile(fs afero.Fs, path string) (*SeedFile, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	var sf SeedFile
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	if err := sf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}
	return &sf, nil
}

// SeedFromFile populates the store from a fixture.
func (s *Store) SeedFromFile(sf *SeedFile) error {
	now := time.Now().UTC()
	for _, u := range sf.Users {
		s.PutUser(User{ID: u.ID, Name: u.Name, Email: u.Email, Created: now})
	}
	for _, sp := range sf.Projects {
		prefix := sp.TrackerPrefix
		if prefix == "" {
			prefix = strings.ToUpper(sp.ID)
		}
		p := Project{
			ID:            sp.ID,
			Name:          sp.Name,
			TrackerPrefix: prefix,
			Version:       "1.0.0",
			Active:        true,
		}
		if sp.Description != "" {
			p.Description = &Description{Type: "text/plain", Value: sp.Description}
		}
		if err := s.CreateProject(p); err != nil {
			return err
		}
		for _, sd := range sp.Documents {
			doc := Document{
				ID:      sp.ID + "/" + sd.Space + "/" + sd.Name,
				Project: sp.ID,
				Space:   sd.Space,
				Name:    sd.Name,
				Title:   sd.Title,
				Type:    defaultString(sd.Type, "generic"),
				Status:  "draft",
			}
			if err := s.CreateDocument(doc); err != nil {
				return err
			}
		}
		for _, swi := range sp.WorkItems {
			wi := WorkItem{
				ID:       sp.ID + "/" + swi.ID,
				Project:  sp.ID,
				Title:    swi.Title,
				Type:     defaultString(swi.Type, "task"),
				Status:   defaultString(swi.Status, "proposed"),
				Priority: swi.Priority,
				Severity: swi.Severity,
				Author:   "admin",
			}
			if swi.Description != "" {
				wi.Description = &Description{Type: "text/html", Value: swi.Description}
			}
			if swi.Module != "" {
				wi.Module = sp.ID + "/" + swi.Module
			}
			if err := s.CreateWorkItem(wi); err != nil {
				return err
			}
		}
	}
	return nil
}

// SeedUser is one user fixture.
type SeedUser struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// SeedDefaults populates the store with the built-in dataset: six projects,
// their documents, a generated block of 154 functional-safety requirements
// for pagination exercises, and a handful of hand-written items. Every
// seeded module association starts hidden.
func (s *Store) SeedDefaults() error {
	s.log.Info("seeding default dataset")

	now := time.Now().UTC()
	for _, u := range []User{
		{ID: "admin", Name: "Administrator", Email: "admin@example.com", Created: now},
		{ID: "john.doe", Name: "John Doe", Email: "john.doe@example.com", Created: now},
		{ID: "jane.smith", Name: "Jane Smith", Email: "jane.smith@example.com", Created: now},
		{ID: "test.user", Name: "Test User", Email: "test.user@example.com", Created: now},
	} {
		s.PutUser(u)
	}

	projects := []struct {
		id, name, description, prefix string
	}{
		{"elibrary", "eLibrary", "Electronic Library System", "ELIB"},
		{"myproject", "My Project", "Sample test project", "MP"},
		{"testing", "Testing Project", "Project for testing purposes", "TEST"},
		{"Python", "Python Project", "Python functional safety project", "FCTS"},
		{"automotive", "Automotive Project", "Automotive safety requirements", "AUTO"},
		{"medical", "Medical Device Project", "Medical device compliance", "MED"},
	}
	for _, p := range projects {
		err := s.CreateProject(Project{
			ID:            p.id,
			Name:          p.name,
			Description:   &Description{Type: "text/plain", Value: p.description},
			TrackerPrefix: p.prefix,
			Version:       "1.0.0",
			Active:        true,
		})
		if err != nil {
			return err
		}
	}

	documents := []struct {
		project, space, name, title string
	}{
		{"Python", "Component Layer", "Component Requirement Specification", "Component Requirement Specification"},
		{"Python", "Domain Layer", "Software Requirement Specification", "Software Requirement Specification"},
		{"Python", "Functional Layer", "Functional Concept", "Functional Concept"},
		{"Python", "Product Layer", "Product Requirements Specification", "Product Requirements Specification"},
		{"elibrary", "_default", "requirements", "Requirements Specification"},
		{"elibrary", "_default", "architecture", "System Architecture"},
		{"elibrary", "testing", "test_plan", "Test Plan"},
		{"myproject", "_default", "user_stories", "User Stories"},
		{"myproject", "docs", "api_spec", "API Specification"},
		{"automotive", "_default", "safety_req", "Safety Requirements"},
		{"automotive", "testing", "test_cases", "Test Cases"},
	}
	for _, d := range documents {
		err := s.CreateDocument(Document{
			ID:      d.project + "/" + d.space + "/" + d.name,
			Project: d.project,
			Space:   d.space,
			Name:    d.name,
			Title:   d.title,
			Type:    "generic",
			Status:  "draft",
			HomePageContent: &Description{
				Type:  "text/html",
				Value: "<h1>" + d.title + "</h1>",
			},
		})
		if err != nil {
			return err
		}
	}

	if err := s.seedGeneratedWorkItems(); err != nil {
		return err
	}

	handWritten := []struct {
		project, local, typ, title, description, status, priority, severity, module string
	}{
		{"elibrary", "ELIB-1", "requirement", "User Authentication",
			"Users shall be able to authenticate using email and password",
			"open", "high", "", "elibrary/_default/requirements"},
		{"elibrary", "ELIB-2", "requirement", "Book Search",
			"Users shall be able to search books by title, author, or ISBN",
			"open", "high", "", "elibrary/_default/requirements"},
		{"elibrary", "ELIB-3", "defect", "Login Button Not Responsive",
			"Login button does not respond on mobile devices",
			"open", "critical", "major", "elibrary/_default/requirements"},
		{"elibrary", "ELIB-4", "task", "Setup CI/CD Pipeline",
			"Configure automated build and deployment pipeline",
			"done", "medium", "", "elibrary/_default/architecture"},
		{"myproject", "MP-1", "userstory", "As a user, I want to login",
			"User story for authentication feature",
			"open", "high", "", "myproject/_default/user_stories"},
		{"myproject", "MP-2", "task", "Implement REST API",
			"Create RESTful API endpoints",
			"in_progress", "high", "", "myproject/docs/api_spec"},
		{"myproject", "MP-3", "defect", "API returns 500 error",
			"POST /api/users returns internal server error",
			"open", "high", "critical", "myproject/docs/api_spec"},
		{"automotive", "AUTO-1", "requirement", "Emergency Braking",
			"System shall engage emergency braking when obstacle detected",
			"approved", "critical", "", "automotive/_default/safety_req"},
		{"automotive", "AUTO-2", "testcase", "Test Emergency Braking",
			"Verify emergency braking engages within 100ms",
			"draft", "high", "", "automotive/testing/test_cases"},
	}
	for _, h := range handWritten {
		assignee := []string{"john.doe"}
		if h.status == "done" {
			assignee = []string{"jane.smith"}
		}
		err := s.CreateWorkItem(WorkItem{
			ID:          h.project + "/" + h.local,
			Project:     h.project,
			Title:       h.title,
			Description: &Description{Type: "text/html", Value: h.description},
			Type:        h.typ,
			Status:      h.status,
			Priority:    h.priority,
			Severity:    h.severity,
			Author:      "admin",
			Assignee:    assignee,
			Module:      h.module,
		})
		if err != nil {
			return err
		}
	}

	s.log.Info("default dataset seeded",
		"projects", len(projects),
		"documents", len(documents),
	)
	return nil
}

// seedGeneratedWorkItems creates the FCTS-9001..FCTS-9154 block spread
// round-robin over the four Python project documents.
func (s *Store) seedGeneratedWorkItems() error {
	documents := []struct {
		id, workItemType string
	}{
		{"Python/Component Layer/Component Requirement Specification", "componentrequirement"},
		{"Python/Domain Layer/Software Requirement Specification", "softwarerequirement"},
		{"Python/Functional Layer/Functional Concept", "functionalrequirement"},
		{"Python/Product Layer/Product Requirements Specification", "technicalrequirement"},
	}
	statuses := []string{"proposed", "approved", "implemented", "verified"}
	priorities := []string{"50.0", "100.0", "150.0", "200.0"}
	severities := []string{"not_applicable", "minor", "major", "critical"}

	for i := 1; i <= 154; i++ {
		doc := documents[i%len(documents)]
		err := s.CreateWorkItem(WorkItem{
			ID:      fmt.Sprintf("Python/FCTS-%d", 9000+i),
			Project: "Python",
			Title:   fmt.Sprintf("Functional Safety Requirement %d", i),
			Description: &Description{
				Type:  "text/html",
				Value: fmt.Sprintf("<p>Safety Attributes need to be filled out for requirement %d</p>", i),
			},
			Type:     doc.workItemType,
			Status:   statuses[i%len(statuses)],
			Priority: priorities[i%len(priorities)],
			Severity: severities[i%len(severities)],
			Author:   "admin",
			Assignee: []string{"john.doe"},
			Module:   doc.id,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
