package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finquest/internal/services"
)

const dateLayout = "2006-01-02"

// ParseForecastDate reads the optional date query parameter. A missing
// value returns the zero time, which means today.
func ParseForecastDate(query url.Values) (time.Time, error) {
	v := strings.TrimSpace(query.Get("date"))
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", services.ErrInvalidInput)
	}
	return t, nil
}

// ParseBool reads a boolean query parameter, defaulting to false for
// anything that is not a recognised true value.
func ParseBool(query url.Values, key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(query.Get(key)))
	return err == nil && v
}

// decodeJSONBody decodes a bounded request body into v. An empty body or
// malformed JSON is an invalid input error.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body too large", services.ErrInvalidInput)
		}
		return fmt.Errorf("read body: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return fmt.Errorf("%w: request body is empty", services.ErrInvalidInput)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: malformed JSON", services.ErrInvalidInput)
	}
	return nil
}
