package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/middleware"
)

// decodeOptionalJSON decodes the body into dst. An empty body leaves dst untouched.
func decodeOptionalJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func employeeIDFromRequest(r *http.Request) string {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	return claims.EmployeeID
}

func userIDFromRequest(r *http.Request) string {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	return claims.UserID
}

// queryParams reads optional query string values. Malformed numbers fall
// back to the default so a bad page link still returns the first page.
type queryParams struct {
	values url.Values
}

func query(r *http.Request) queryParams {
	return queryParams{values: r.URL.Query()}
}

// stringPtr returns nil when key is absent or empty.
func (q queryParams) stringPtr(key string) *string {
	v := q.values.Get(key)
	if v == "" {
		return nil
	}
	return &v
}

func (q queryParams) intOr(key string, def int) int {
	n, err := strconv.Atoi(q.values.Get(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func (q queryParams) boolOr(key string, def bool) bool {
	b, err := strconv.ParseBool(q.values.Get(key))
	if err != nil {
		return def
	}
	return b
}
