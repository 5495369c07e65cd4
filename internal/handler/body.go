package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/pkordes/tourdesk/internal/domain"
	"github.com/pkordes/tourdesk/internal/form"
)

const maxMultipartMemory = 32 << 20

// errBodyTooLarge is returned when the body exceeds the limit installed by
// middleware.NewMaxBodySizeHandler.
var errBodyTooLarge = errors.New("request body too large")

// decodeInput reads an experience payload from a JSON, urlencoded or
// multipart body. Browser forms go through form.Parser, which reports every
// value it had to replace as a warning; JSON bodies get the same text
// normalisation without coercion.
func (s *Server) decodeInput(r *http.Request) (domain.ExperienceInput, []domain.FieldWarning, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		mediaType = "application/json"
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return domain.ExperienceInput{}, nil, bodyErr(err)
		}
		in, warnings := s.forms.ParseValues(r.PostForm)
		return in, warnings, nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return domain.ExperienceInput{}, nil, bodyErr(err)
		}
		in, warnings := s.forms.ParseMultipart(r.MultipartForm)
		return in, warnings, nil
	default:
		var in domain.ExperienceInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			if errors.Is(err, io.EOF) {
				return in, nil, errors.New("request body is required")
			}
			return in, nil, bodyErr(err)
		}
		form.Normalize(&in)
		return in, nil, nil
	}
}

func bodyErr(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errBodyTooLarge
	}
	return fmt.Errorf("invalid request body: %w", err)
}

// writeBodyError answers a payload decodeInput rejected.
func writeBodyError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, errorBody("payload_too_large", err.Error()))
		return
	}
	writeError(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
}
