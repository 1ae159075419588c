package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/roach88/pathway/internal/engine"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleComplete answers 201 for a new record and 200 for a replay.
func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	a, ok := access(w, r)
	if !ok {
		return
	}
	res, err := s.svc.RecordCompletion(r.Context(), engine.CompleteRequest{
		UserID:         a.UserID,
		SequenceID:     a.SequenceID,
		ItemNumber:     a.ItemNumber,
		IdempotencyKey: r.Header.Get(HeaderIdempotencyKey),
		TimeZone:       r.Header.Get(HeaderTimeZone),
	})
	if err != nil {
		s.respondWithDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	respondWithJSON(w, status, res)
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	a, ok := access(w, r)
	if !ok {
		return
	}
	view, err := s.svc.OpenItem(r.Context(), a, s.opts.RevealPolicy, s.opts.WordsPerSecond)
	if err != nil {
		s.respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.GetUnlockState(r.Context(), userID(r), mux.Vars(r)["sequence"])
	if err != nil {
		s.respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, state)
}

func (s *Server) handleExperiment(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.GetExperimentStatus(r.Context(), userID(r), mux.Vars(r)["sequence"], r.Header.Get(HeaderTimeZone))
	if err != nil {
		s.respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, st)
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.GetStreakSummary(r.Context(), userID(r), r.URL.Query().Get("group"), r.Header.Get(HeaderTimeZone))
	if err != nil {
		s.respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sum)
}
