package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roach88/pathway/internal/calendar"
	"github.com/roach88/pathway/internal/progress"
)

type errorBody struct {
	Error       string             `json:"error"`
	Code        progress.ErrorCode `json:"code,omitempty"`
	SequenceID  string             `json:"sequence_id,omitempty"`
	ItemNumber  int                `json:"item_number,omitempty"`
	AvailableOn *calendar.Date     `json:"available_on,omitempty"`
	Details     map[string]string  `json:"details,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, errorBody{Error: message})
}

// StatusOf maps an engine error to an HTTP status.
func StatusOf(err error) int {
	switch progress.CodeOf(err) {
	case progress.ErrCodeItemLocked:
		return http.StatusConflict
	case progress.ErrCodeOutOfRange, progress.ErrCodeUnknownSequence:
		return http.StatusNotFound
	case progress.ErrCodeTooEarly:
		return http.StatusTooEarly
	case progress.ErrCodeInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondWithDomainError(w http.ResponseWriter, err error) {
	var pe *progress.Error
	if !errors.As(err, &pe) {
		s.log.Error("request failed", "error", err.Error())
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondWithJSON(w, StatusOf(err), errorBody{
		Error:       pe.Message,
		Code:        pe.Code,
		SequenceID:  pe.SequenceID,
		ItemNumber:  pe.ItemNumber,
		AvailableOn: pe.AvailableOn,
		Details:     pe.Details,
	})
}
