package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/alm-forge/stanza/internal/cmd/base"
	"github.com/alm-forge/stanza/internal/config"
	"github.com/alm-forge/stanza/pkg/auth"
)

type Command struct {
	*base.Command

	// FlagConfig is the path to an HCL configuration file. The token is
	// signed with the configured secret so the server accepts it.
	FlagConfig string

	// FlagUser is the user id baked into the token.
	FlagUser string

	// FlagName is the display name baked into the token.
	FlagName string

	// FlagPermissions is a comma separated permission list.
	FlagPermissions string

	// FlagTTL is the token lifetime.
	FlagTTL time.Duration
}

func (c *Command) Synopsis() string {
	return "Mint a bearer token for the API"
}

func (c *Command) Help() string {
	return `Usage: stanza token [options]

  Mint a signed bearer token. Pass the same -config the server runs
  with so both sides share a signing secret.

` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet("token")

	f.StringVar(&c.FlagConfig, "config", "",
		"Path to an HCL configuration file")
	f.StringVar(&c.FlagUser, "user", "admin",
		"User id placed in the token")
	f.StringVar(&c.FlagName, "name", "admin",
		"Display name placed in the token")
	f.StringVar(&c.FlagPermissions, "permissions", "read,write,admin",
		"Comma separated permission list")
	f.DurationVar(&c.FlagTTL, "ttl", auth.DefaultTokenTTL,
		"Token lifetime")

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg := config.Default()
	if c.FlagConfig != "" {
		loaded, err := config.Load(c.FlagConfig)
		if err != nil {
			c.UI.Error(fmt.Sprintf("error loading configuration: %v", err))
			return 1
		}
		cfg = loaded
	}
	if cfg.DisableAuth {
		c.UI.Warn("authentication is disabled in this configuration; the token is not required")
	}

	var permissions []string
	for _, p := range strings.Split(c.FlagPermissions, ",") {
		if p = strings.TrimSpace(p); p != "" {
			permissions = append(permissions, p)
		}
	}

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, c.FlagTTL)
	signed, err := issuer.Issue(c.FlagUser, c.FlagName, permissions)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error signing token: %v", err))
		return 1
	}

	c.UI.Output(signed)
	return 0
}
