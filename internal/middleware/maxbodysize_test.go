package middleware_test

import (
	"bytes"
	"encoding/json"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tourdesk/internal/middleware"
)

const uploadLimit = 4 << 10

// createExperience stands in for the create route: it decodes a JSON or
// multipart experience and reports how many images arrived. A body the
// limiter cut short fails to parse and is answered with 413.
func createExperience(seen *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen++
		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		images := 0
		switch mediaType {
		case "multipart/form-data":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
			images = len(r.MultipartForm.File["images"])
		default:
			var in map[string]any
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
		}
		w.Header().Set("X-Images", strconv.Itoa(images))
		w.WriteHeader(http.StatusCreated)
	})
}

func multipartExperience(t *testing.T, imageBytes int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Glacier Hike"))
	require.NoError(t, mw.WriteField("included[]", "crampons"))
	part, err := mw.CreateFormFile("images", "glacier.jpg")
	require.NoError(t, err)
	_, err = part.Write(append([]byte{0xFF, 0xD8, 0xFF}, bytes.Repeat([]byte{0x42}, imageBytes)...))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestMaxBodySizeHandler_JSONExperienceUnderLimit(t *testing.T) {
	var seen int
	h := middleware.NewMaxBodySizeHandler(uploadLimit)(createExperience(&seen))

	req := httptest.NewRequest(http.MethodPost, "/orgs/x/experiences",
		bytes.NewBufferString(`{"name":"Glacier Hike","price":120,"included":["crampons"]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, seen)
}

func TestMaxBodySizeHandler_MultipartUpload(t *testing.T) {
	tests := []struct {
		name          string
		imageBytes    int
		knownLength   bool
		wantStatus    int
		wantForwarded bool
	}{
		{"small image passes", 1 << 10, true, http.StatusCreated, true},
		{"oversized image rejected up front", 2 * uploadLimit, true, http.StatusRequestEntityTooLarge, false},
		{"oversized streamed image cut off", 2 * uploadLimit, false, http.StatusRequestEntityTooLarge, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen int
			h := middleware.NewMaxBodySizeHandler(uploadLimit)(createExperience(&seen))

			body, contentType := multipartExperience(t, tt.imageBytes)
			req := httptest.NewRequest(http.MethodPost, "/orgs/x/experiences", body)
			req.Header.Set("Content-Type", contentType)
			if !tt.knownLength {
				req.ContentLength = -1
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantForwarded, seen == 1)
			if tt.wantStatus == http.StatusCreated {
				assert.Equal(t, "1", rec.Header().Get("X-Images"))
			}
		})
	}
}

func TestMaxBodySizeHandler_RejectionUsesErrorEnvelope(t *testing.T) {
	var seen int
	h := middleware.NewMaxBodySizeHandler(uploadLimit)(createExperience(&seen))

	body, contentType := multipartExperience(t, 2*uploadLimit)
	req := httptest.NewRequest(http.MethodPost, "/orgs/x/experiences", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t,
		`{"success":false,"status":"failed","error":{"code":"payload_too_large","message":"request body too large"}}`,
		rec.Body.String())
}
