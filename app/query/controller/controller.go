package controller

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/atcoder-problems/problemsx/app/query/types"
)

type Controller struct {
	App *types.App
}

// NewController returns a new controller.
func NewController(app *types.App) *Controller {
	return &Controller{
		App: app,
	}
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()

	r.Handle("/healthz", http.HandlerFunc(c.HandleHealth)).Methods("GET")

	api := r.PathPrefix("/atcoder-api/v3").Subrouter()
	api.HandleFunc("/ac_ranking", c.HandleAcceptedCountRanking).Methods("GET")
	api.HandleFunc("/rated_point_sum_ranking", c.HandleRatedPointSumRanking).Methods("GET")
	api.HandleFunc("/streak_ranking", c.HandleStreakRanking).Methods("GET")
	api.HandleFunc("/language_ranking", c.HandleLanguageRanking).Methods("GET")
	api.HandleFunc("/language_list", c.HandleLanguageList).Methods("GET")
	api.HandleFunc("/user/ac_rank", c.HandleUserAcceptedCountRank).Methods("GET")
	api.HandleFunc("/user/rated_point_sum_rank", c.HandleUserRatedPointSumRank).Methods("GET")
	api.HandleFunc("/user/streak_rank", c.HandleUserStreakRank).Methods("GET")
	api.HandleFunc("/from/{epoch}", c.HandleSubmissionsFrom).Methods("GET")
	api.HandleFunc("/solver_counts", c.HandleSolverCounts).Methods("GET")
	api.HandleFunc("/problem_points", c.HandleProblemPoints).Methods("GET")

	return r, nil
}

// WithCORS allows browser clients on any origin to read the API.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet+", "+http.MethodOptions)

		// Fast-path the preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
