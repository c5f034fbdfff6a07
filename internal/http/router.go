package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Auth          *AuthHandler
	Trainings     *TrainingHandler
	Notifications *NotificationHandler
	Middleware    []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Auth != nil {
		mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Login(w, r)
		})
		mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Logout(w, r)
		})
	}

	if cfg.Trainings != nil {
		mux.HandleFunc("/trainings", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Trainings.List(w, r)
		})
		mux.HandleFunc("/trainings/intake", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Trainings.Ingest(w, r)
		})
		mux.HandleFunc("/trainings/", func(w http.ResponseWriter, r *http.Request) {
			routeTraining(cfg.Trainings, w, r)
		})
	}

	if cfg.Notifications != nil {
		mux.HandleFunc("/notifications", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Notifications.List(w, r)
			case http.MethodDelete:
				cfg.Notifications.Clear(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodDelete)
			}
		})
		mux.HandleFunc("/notifications/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/notifications/")
			id, action, _ := strings.Cut(rest, "/")
			if id == "" || action != "read" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Notifications.MarkRead(w, r, id)
		})
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		handler = cfg.Middleware[i](handler)
	}
	return handler
}

// routeTraining dispatches /trainings/{id}[/...] requests by path segment.
func routeTraining(handler *TrainingHandler, w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/trainings/")
	segments := strings.Split(strings.Trim(rest, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		http.NotFound(w, r)
		return
	}

	r = r.WithContext(ContextWithTrainingID(r.Context(), segments[0]))

	switch {
	case len(segments) == 1:
		switch r.Method {
		case http.MethodGet:
			handler.Get(w, r)
		case http.MethodPatch:
			handler.Update(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPatch)
		}
	case len(segments) == 2 && segments[1] == "finalize":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		handler.Finalize(w, r)
	case len(segments) == 2 && segments[1] == "objectives":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		handler.Objectives(w, r)
	case len(segments) == 2 && segments[1] == "participants":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		handler.AddParticipant(w, r)
	case len(segments) == 4 && segments[1] == "participants" && segments[3] == "signature":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		handler.SignParticipant(w, r, segments[2])
	default:
		http.NotFound(w, r)
	}
}
