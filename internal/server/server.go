package server

import (
	"github.com/hashicorp/go-hclog"

	"github.com/alm-forge/stanza/internal/config"
	"github.com/alm-forge/stanza/internal/parts"
	"github.com/alm-forge/stanza/internal/store"
	"github.com/alm-forge/stanza/pkg/auth"
)

// Server contains the server configuration.
type Server struct {
	// Config is the config for the server.
	Config *config.Config

	// Store is the in-memory resource store.
	Store *store.Store

	// Parts is the document-parts service.
	Parts *parts.Service

	// Auth issues and verifies bearer tokens. Nil when auth is disabled.
	Auth *auth.TokenIssuer

	// Logger is the logger for the server.
	Logger hclog.Logger
}
