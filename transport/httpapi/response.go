package httpapi

import (
	"encoding/json"
	"net/http"

	goOTT "github.com/MrEthical07/goOTT"
)

// ErrorEnvelope is the body of every non-2xx response.
type ErrorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TokenEnvelope is the body of a successful generate call.
type TokenEnvelope struct {
	Token string `json:"token"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	class := goOTT.ClassOf(err)
	if class == "" {
		class = goOTT.ClassInternal
	}
	writeJSON(w, class.HTTPStatus(), ErrorEnvelope{Code: string(class), Message: goOTT.Message(err)})
}
