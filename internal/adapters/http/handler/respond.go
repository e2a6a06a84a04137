package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("handler: invalid request body")

// Problem は RFC 7807 の problem details です。
type Problem struct {
	Type   string            `json:"type,omitempty"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Field  string            `json:"field,omitempty"`
	Step   string            `json:"step,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeProblem(w http.ResponseWriter, p Problem) {
	if p.Type == "" {
		p.Type = "about:blank"
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

// validationProblem は validator のエラーをフィールド単位の problem に変換します。
func validationProblem(err error) Problem {
	p := Problem{Title: "Validation Failed", Status: http.StatusBadRequest}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		p.Detail = err.Error()
		return p
	}
	p.Errors = make(map[string]string, len(verrs))
	for _, fe := range verrs {
		p.Errors[fe.Field()] = fe.Tag()
	}
	return p
}
