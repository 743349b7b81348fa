package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/hpungsan/agenda/internal/errors"
	"github.com/hpungsan/agenda/internal/schedule"
)

// readSchedule decodes the schedule document from either a multipart upload
// (field "file", *.json) or a raw JSON body. The body is capped at maxMB.
func readSchedule(w http.ResponseWriter, r *http.Request, maxMB int) (any, error) {
	maxBytes := int64(maxMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		data []byte
		err  error
	)
	if mediaType == "multipart/form-data" {
		data, err = readUpload(r, maxBytes)
	} else {
		data, err = io.ReadAll(r.Body)
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.NewPayloadTooLarge(maxMB)
		}
		if _, ok := err.(*errors.AgendaError); ok {
			return nil, err
		}
		return nil, errors.NewInvalidRequest("could not read request body")
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.NewInvalidRequest("no JSON data provided")
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewInvalidRequest("invalid JSON file")
	}
	return raw, nil
}

// readUpload returns the contents of the "file" part.
func readUpload(r *http.Request, maxBytes int64) ([]byte, error) {
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, err
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errors.NewInvalidRequest("no file part")
	}
	defer file.Close()

	if header.Filename == "" {
		return nil, errors.NewInvalidRequest("no selected file")
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".json") {
		return nil, errors.NewInvalidRequest("invalid file type: only JSON files are allowed")
	}
	return io.ReadAll(file)
}

// readFilter reads the optional subject/location filters from the query
// string or form fields.
func readFilter(r *http.Request) schedule.Filter {
	return schedule.Filter{
		Subject:  r.FormValue("subject"),
		Location: r.FormValue("location"),
	}
}
