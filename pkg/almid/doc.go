// Package almid provides type-safe resource identification for stanza.
//
// The emulated ALM API addresses every resource with a composite,
// slash-joined identifier:
//
//  1. DocumentID: "{project}/{space}/{name}". A document lives inside a
//     space inside a project, and the joined triple is the only identifier
//     the wire protocol ever exposes.
//
//  2. WorkItemID: "{project}/{localID}". The local ID carries the
//     project's tracker prefix (e.g. "FCTS-9042").
//
//  3. Part identifiers are derived strings owned by the document-parts
//     layer ("{document}/workitem_{localID}", "{document}/heading_{localID}")
//     and are handled as opaque strings outside this package.
//
// # Usage Examples
//
//	id, err := almid.ParseDocumentID("Python/Functional Layer/Functional Concept")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	id.Project // "Python"
//
//	wi := almid.NewWorkItemID("Python", "FCTS-9042")
//	wi.String() // "Python/FCTS-9042"
package almid
