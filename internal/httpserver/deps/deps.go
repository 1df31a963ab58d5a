package deps

import (
	"time"

	"github.com/MrSnakeDoc/switchboard/internal/catalog"
	"github.com/MrSnakeDoc/switchboard/internal/logger"
	"github.com/MrSnakeDoc/switchboard/internal/mutator"
	"github.com/MrSnakeDoc/switchboard/internal/session"
	"github.com/MrSnakeDoc/switchboard/internal/store"
	"github.com/MrSnakeDoc/switchboard/internal/ws"
)

type Deps struct {
	Logger        logger.Logger
	StartTime     time.Time
	Version       string
	Commit        string
	BuildDate     string
	GoVersion     string
	AllowedHosts  []string         // Host headers allowed to access the server
	Store         store.Store      // durable singleton record
	Mutator       *mutator.Mutator // validated state transitions
	Guard         *session.Guard   // session gate
	Catalog       *catalog.Catalog // display copy per service
	Hub           *ws.Hub          // state broadcast to open dashboards
	SessionTTL    time.Duration    // login-issued session lifetime
	SecureCookies bool             // true behind HTTPS
}
