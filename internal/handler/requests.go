package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dan9191/debit-card-service/internal/service"
	"github.com/shopspring/decimal"
)

const (
	maxBodyBytes     = 1 << 20
	maxDecimalLength = 32
)

var errMalformedBody = errors.New("malformed request body")

// input is a decoded JSON object or form body
type input map[string]interface{}

// readInput decodes a JSON object or a urlencoded form. An empty body is an empty input
func readInput(w http.ResponseWriter, r *http.Request) (input, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data" {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("%w: %w", errMalformedBody, err)
		}
		in := input{}
		for key, values := range r.PostForm {
			if len(values) > 0 {
				in[key] = values[0]
			}
		}
		return in, nil
	}

	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	in := input{}
	if err := decoder.Decode(&in); err != nil {
		if errors.Is(err, io.EOF) {
			return input{}, nil
		}
		return nil, fmt.Errorf("%w: %w", errMalformedBody, err)
	}
	return in, nil
}

// present reports whether key was sent with a non-empty value
func (in input) present(key string) bool {
	v, ok := in[key]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return false
	}
	return true
}

// requiredString validates key as a present string
func (in input) requiredString(key string, verr *service.ValidationError) string {
	if !in.present(key) {
		verr.Add(key, fmt.Sprintf("The %s field is required.", label(key)))
		return ""
	}
	s, ok := in[key].(string)
	if !ok {
		verr.Add(key, fmt.Sprintf("The %s must be a string.", label(key)))
		return ""
	}
	return s
}

// optionalString returns the string at key, or "" when absent; non-strings are rejected
func (in input) optionalString(key string, verr *service.ValidationError) string {
	v, ok := in[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		verr.Add(key, fmt.Sprintf("The %s must be a string.", label(key)))
		return ""
	}
	return s
}

// requiredBool accepts true, false, 1, 0, "1", "0", "true" and "false"
func (in input) requiredBool(key string, verr *service.ValidationError) bool {
	if !in.present(key) {
		verr.Add(key, fmt.Sprintf("The %s field is required.", label(key)))
		return false
	}
	b, ok := parseBool(in[key])
	if !ok {
		verr.Add(key, fmt.Sprintf("The %s field must be true or false.", label(key)))
	}
	return b
}

// requiredInt validates key as a positive integer
func (in input) requiredInt(key string, verr *service.ValidationError) int64 {
	if !in.present(key) {
		verr.Add(key, fmt.Sprintf("The %s field is required.", label(key)))
		return 0
	}
	n, ok := parseInt(in[key])
	if !ok {
		verr.Add(key, fmt.Sprintf("The %s must be an integer.", label(key)))
	}
	return n
}

// requiredDecimal validates key as a number or numeric string
func (in input) requiredDecimal(key string, verr *service.ValidationError) decimal.Decimal {
	if !in.present(key) {
		verr.Add(key, fmt.Sprintf("The %s field is required.", label(key)))
		return decimal.Zero
	}
	var raw string
	switch v := in[key].(type) {
	case json.Number:
		raw = v.String()
	case string:
		raw = strings.TrimSpace(v)
	default:
		verr.Add(key, fmt.Sprintf("The %s must be a number.", label(key)))
		return decimal.Zero
	}
	if len(raw) > maxDecimalLength {
		verr.Add(key, fmt.Sprintf("The %s must be a number.", label(key)))
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		verr.Add(key, fmt.Sprintf("The %s must be a number.", label(key)))
		return decimal.Zero
	}
	return d
}

func parseBool(v interface{}) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case json.Number:
		switch b.String() {
		case "1":
			return true, true
		case "0":
			return false, true
		}
	case string:
		switch b {
		case "1", "true":
			return true, true
		case "0", "false":
			return false, true
		}
	}
	return false, false
}

func parseInt(v interface{}) (int64, bool) {
	var raw string
	switch n := v.(type) {
	case json.Number:
		raw = n.String()
	case string:
		raw = strings.TrimSpace(n)
	default:
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// pathID reads the numeric {id} route variable
func pathID(vars map[string]string) (int64, bool) {
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	return id, err == nil && id > 0
}

func label(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}
