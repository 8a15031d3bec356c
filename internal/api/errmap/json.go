package errmap

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// WriteJSON пишет data как JSON с кодом status
func WriteJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// WriteMessage - ответ вида {"msg": "..."}
func WriteMessage(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	WriteJSON(w, logger, status, ErrorResponse{Msg: msg})
}
