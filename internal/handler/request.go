package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// readFields returns the request body as flat string fields. JSON objects and
// urlencoded forms are both accepted; for repeated form keys the first wins.
func readFields(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var raw map[string]any
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return map[string]string{}, nil
			}
			return nil, fmt.Errorf("decode json body: %w", err)
		}
		fields := make(map[string]string, len(raw))
		for k, v := range raw {
			switch x := v.(type) {
			case nil:
			case string:
				fields[k] = x
			case json.Number:
				fields[k] = x.String()
			case bool:
				fields[k] = strconv.FormatBool(x)
			default:
				fields[k] = fmt.Sprint(x)
			}
		}
		return fields, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	fields := make(map[string]string, len(r.PostForm))
	for k, vs := range r.PostForm {
		if len(vs) > 0 {
			fields[k] = vs[0]
		}
	}
	return fields, nil
}

// tagPriority orders validation failures so the most basic problem is reported first.
var tagPriority = []string{"required", "eqfield", "email", "datetime", "max"}

// validationMessage picks the message for the highest-priority failed tag.
func validationMessage(err error, messages map[string]string) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request"
	}
	for _, tag := range tagPriority {
		for _, fe := range verrs {
			if fe.Tag() == tag {
				if msg, ok := messages[tag]; ok {
					return msg
				}
			}
		}
	}
	return "Invalid request"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
