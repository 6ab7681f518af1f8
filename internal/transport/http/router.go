package http

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"event-trivia-service/internal/app"
	"event-trivia-service/internal/domain"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// SnapshotSource exposes the last persisted game snapshot.
type SnapshotSource interface {
	Latest() (domain.GameSnapshot, bool)
}

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	Game           *app.Game
	WS             *WSHandler
	Snapshots      SnapshotSource
	PublicURL      string
	StaticDir      string
	AllowedOrigins []string
}

// NewRouter registers the WebSocket endpoints, the QR and snapshot APIs and,
// when a static dir is configured, the single page front end.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := httprouter.New()

	mux.GET("/healthz", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.GET("/ws/table/:id", cfg.WS.ServeTable)
	mux.GET("/ws/admin", cfg.WS.ServeAdmin)
	mux.GET("/ws/screen", cfg.WS.ServeScreen)

	mux.GET("/qr/table/:id", qrHandler(cfg.Game, cfg.PublicURL))
	mux.GET("/api/snapshot", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, http.StatusOK, cfg.Game.PublicSnapshot())
	})
	if cfg.Snapshots != nil {
		mux.GET("/api/snapshots/latest", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
			snapshot, ok := cfg.Snapshots.Latest()
			if !ok {
				http.Error(w, "no results yet", http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, snapshot)
		})
	}

	if cfg.StaticDir != "" {
		registerFrontend(mux, cfg.StaticDir)
	}

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		log.Error().Interface("panic", v).Str("path", r.URL.Path).Msg("handler panicked")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}

	return cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodHead, http.MethodGet},
	}).Handler(mux)
}

func registerFrontend(mux *httprouter.Router, dir string) {
	index := filepath.Join(dir, "index.html")
	serveIndex := func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		http.ServeFile(w, r, index)
	}

	mux.ServeFiles("/static/*filepath", http.Dir(filepath.Join(dir, "static")))
	mux.GET("/", serveIndex)
	mux.GET("/screen", serveIndex)
	mux.GET("/admin", serveIndex)
	mux.GET("/table/:id", serveIndex)
}

// qrHandler renders a PNG QR code pointing players at their table's page.
func qrHandler(game *app.Game, publicURL string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tableID, err := strconv.Atoi(ps.ByName("id"))
		if err != nil || !game.HasTable(tableID) {
			http.Error(w, domain.ErrTableNotFound.Error(), http.StatusNotFound)
			return
		}

		url := tableURL(r, publicURL, tableID)
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			log.Error().Err(err).Int("table_id", tableID).Msg("qr generation failed")
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

// tableURL is the page players open to join a table. Without a configured
// public URL it is derived from the request, honouring X-Forwarded-Proto.
func tableURL(r *http.Request, publicURL string, tableID int) string {
	base := strings.TrimSuffix(publicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/table/" + strconv.Itoa(tableID)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write json response")
	}
}
