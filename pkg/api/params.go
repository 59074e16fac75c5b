package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/txn2/chat-platform/pkg/chat"
)

const (
	pathParamID = "id"

	// maxBodyBytes caps JSON request bodies.
	maxBodyBytes = 1 << 20
)

var errBadRequest = errors.New("bad request")

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", errBadRequest)
		}
		return fmt.Errorf("%w: invalid request body", errBadRequest)
	}
	return nil
}

// pathID parses the {id} path value as a decimal int64.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue(pathParamID)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, raw)
	}
	return id, nil
}

// parsePageQuery reads page, size and sort query parameters.
func parsePageQuery(r *http.Request) (chat.PageQuery, error) {
	var q chat.PageQuery
	values := r.URL.Query()

	if v := values.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, fmt.Errorf("%w: page must be an integer", errBadRequest)
		}
		q.Page = n
	}
	if v := values.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, fmt.Errorf("%w: size must be an integer", errBadRequest)
		}
		q.Size = n
	}
	q.Sort = values.Get("sort")
	return q, nil
}

// parseOptionalBool reads an optional boolean query parameter.
func parseOptionalBool(r *http.Request, name string) (*bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil //nolint:nilnil // absent parameter is not an error
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be true or false", errBadRequest, name)
	}
	return &b, nil
}
