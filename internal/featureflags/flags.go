package featureflags

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Flags are boolean switches read from FLAG_<NAME> environment variables.
// env parses true/1 (and false/0) case-insensitively.
type Flags struct {
	// AdminRoutes exposes the unscoped /api/admin listings.
	AdminRoutes bool `env:"ADMIN_ROUTES" envDefault:"false"`
	// SchemaValidation checks public intake payloads against the JSON schema
	// before they reach the handler.
	SchemaValidation bool `env:"SCHEMA_VALIDATION" envDefault:"true"`
}

// Load reads the flags from the environment.
func Load() (Flags, error) {
	var f Flags
	if err := env.ParseWithOptions(&f, env.Options{Prefix: "FLAG_"}); err != nil {
		return Flags{}, fmt.Errorf("parse feature flags: %w", err)
	}
	return f, nil
}
