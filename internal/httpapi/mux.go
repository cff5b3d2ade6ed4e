package httpapi

import (
	"database/sql"
	"net/http"
)

// NewMux returns a mux with the health check and, when staticDir is set, the
// static asset handler under /static/. Features register their own routes.
func NewMux(db *sql.DB, staticDir string, broker BrokerStatus) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db, broker)
	if staticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}
	return mux
}
