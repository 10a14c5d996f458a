package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/yuzvak/salesboard-service/internal/application/ports"
	domainErrors "github.com/yuzvak/salesboard-service/internal/domain/errors"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/auth"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/http/middleware"
)

var errNoSession = errors.New("request has no session")

func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domainErrors.NewValidationError(
			map[string]string{"id": "must be a positive integer"},
			map[string]interface{}{"id": raw},
		)
	}
	return id, nil
}

// page reads limit and offset query parameters. Absent values are zero; the use
// cases apply defaults and caps.
func page(r *http.Request) (int, int, error) {
	q := r.URL.Query()
	fields := map[string]string{}
	input := map[string]interface{}{}

	read := func(name string) int {
		raw := q.Get(name)
		if raw == "" {
			return 0
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fields[name] = "must be a non-negative integer"
			input[name] = raw
			return 0
		}
		return n
	}

	limit, offset := read("limit"), read("offset")
	if len(fields) > 0 {
		return 0, 0, domainErrors.NewValidationError(fields, input)
	}
	return limit, offset, nil
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domainErrors.NewValidationError(map[string]string{"body": fmt.Sprintf("invalid JSON: %v", err)}, nil)
	}
	return nil
}

func session(r *http.Request) (ports.Session, error) {
	s, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		return nil, errNoSession
	}
	return s, nil
}

func principal(r *http.Request) (auth.Principal, error) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		return auth.Principal{}, domainErrors.ErrUnauthenticated
	}
	return p, nil
}
