// Package parts implements the document-parts operations: listing a
// document's visible structure and placing associated work items into it.
package parts

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/alm-forge/stanza/internal/store"
)

// RelRef is the data member of a to-one relationship in a request body.
type RelRef struct {
	Data struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"data"`
}

// PartResource is one entry of the POST parts request body.
type PartResource struct {
	Type       string `json:"type"`
	Attributes struct {
		Type string `json:"type"`
	} `json:"attributes"`
	Relationships struct {
		WorkItem     *RelRef `json:"workItem"`
		PreviousPart *RelRef `json:"previousPart"`
	} `json:"relationships"`
}

// validate checks the request shape. Only work item parts can be created
// through the API.
func (r *PartResource) validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Type, validation.Required, validation.In("document_parts")),
	)
	if err != nil {
		return store.NewValidation("Resource type must be 'document_parts'")
	}
	if t := r.Attributes.Type; t != "" && t != "workitem" {
		return store.NewValidation("Unsupported part type: %s", t)
	}
	if r.Relationships.WorkItem == nil || r.Relationships.WorkItem.Data.ID == "" {
		return store.NewValidation("workItem relationship is required")
	}
	return nil
}

// previousPartID returns the previousPart reference, or "".
func (r *PartResource) previousPartID() string {
	if r.Relationships.PreviousPart == nil {
		return ""
	}
	return r.Relationships.PreviousPart.Data.ID
}

// Service orchestrates part listing and placement on top of the store.
type Service struct {
	store *store.Store
	log   hclog.Logger
}

// NewService builds a parts service.
func NewService(s *store.Store, log hclog.Logger) *Service {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Service{store: s, log: log.Named("parts")}
}

// List returns the visible parts of a document in document order.
func (s *Service) List(documentID string) ([]store.Part, error) {
	return s.store.ListVisibleParts(documentID)
}

// Add places a batch of work items into a document. The batch is not
// atomic: each entry is validated and applied in order, and a failure
// surfaces immediately while earlier placements stay applied.
func (s *Service) Add(documentID string, resources []PartResource) ([]store.Part, error) {
	if _, err := s.store.GetDocument(documentID); err != nil {
		return nil, err
	}

	created := make([]store.Part, 0, len(resources))
	for _, res := range resources {
		if err := res.validate(); err != nil {
			return created, err
		}
		part, err := s.store.InsertWorkItemPart(
			documentID, res.Relationships.WorkItem.Data.ID, res.previousPartID())
		if err != nil {
			return created, err
		}
		s.log.Debug("created document part",
			"part", part.ID,
			"document", documentID,
			"position", part.Position,
		)
		created = append(created, part)
	}
	return created, nil
}
