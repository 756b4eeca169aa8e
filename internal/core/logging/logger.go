package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a logger tagged with a component name. The context hook
// is attached so events logged with Ctx carry project and edit ids.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger().Hook(ContextHook{})
}
