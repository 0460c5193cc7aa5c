package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Result is the response envelope. It is either Ok with data or Fail with a
// message, never both.
type Result[T any] struct {
	ok   bool
	data T
	msg  string
}

func Ok[T any](data T) Result[T] { return Result[T]{ok: true, data: data} }

func Fail(msg string) Result[struct{}] { return Result[struct{}]{msg: msg} }

func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.ok {
		return json.Marshal(struct {
			Success bool `json:"success"`
			Data    T    `json:"data"`
		}{true, r.data})
	}
	return json.Marshal(struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}{false, r.msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func writeFail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Fail(msg))
}
