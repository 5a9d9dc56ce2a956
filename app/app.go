package app

import (
	"database/sql"
	"math/rand"

	"github.com/branchsurvey/server/config"
	"github.com/branchsurvey/server/engine"
	"github.com/go-chi/oauth"
)

// App bundles the process-wide collaborators: the database pool, the token
// server, the parsed config and the engine built once at start-up.
type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config

	Catalog    *engine.Catalog
	Resolver   *engine.Resolver
	Navigator  *engine.Navigator
	Reconciler *engine.Reconciler
	Rand       *rand.Rand
}
