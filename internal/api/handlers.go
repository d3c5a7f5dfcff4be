package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Roelanb/pixelveil/internal/ledger"
	"github.com/Roelanb/pixelveil/internal/qrcode"
	"github.com/Roelanb/pixelveil/internal/stego"
)

// Error texts returned to clients.
const (
	errMissingImage     = "Missing image"
	errMissingImageText = "Missing image or text"
	errNoSelectedFile   = "No selected file"
	errUploadTooLarge   = "Upload too large"
	errUnsupportedImage = "Unsupported or corrupt image"
	errImageTooLarge    = "Image dimensions too large"
	errTooLong          = "Message is too long for this image"
	errPasswordRequired = "This message is encrypted. Please provide a password."
	errBadPassword      = "Invalid password or corrupted data"
	errUndecodable      = "Could not decode message. Ensure this image was encoded by this tool."
	errEncodeFailed     = "Encoding failed"
	errCapacityFailed   = "Could not read image"
	errBadJSON          = "Invalid JSON body"
	errMissingContent   = "Missing content"
	errContentTooLong   = "Content too long"
	errQRFailed         = "Failed to generate QR code"
)

const (
	multipartMemory     = 8 << 20
	maxJSONBody         = 64 << 10
	defaultActivityRows = 50
	maxActivityRows     = 500
)

type upload struct {
	name string
	data []byte
}

// call tracks one API request for the ledger.
type call struct {
	rec   ledger.Record
	start time.Time
}

func newCall(op ledger.Op) *call {
	return &call{rec: ledger.Record{Op: op}, start: time.Now()}
}

func (c *call) fail(w http.ResponseWriter, status int, msg string) {
	c.rec.Status = ledger.StatusRejected
	if status >= http.StatusInternalServerError {
		c.rec.Status = ledger.StatusFailed
	}
	c.rec.Error = msg
	writeError(w, status, msg)
}

func (c *call) info(in stego.Info) {
	c.rec.Width, c.rec.Height = in.Width, in.Height
	c.rec.Capacity = in.Capacity
	c.rec.PayloadBytes = in.PayloadBytes
	c.rec.Encrypted = in.Encrypted
}

func (s *Server) record(r *http.Request, c *call) {
	if s.ledger == nil {
		return
	}
	if c.rec.Status == "" {
		c.rec.Status = ledger.StatusOK
	}
	c.rec.DurationMs = time.Since(c.start).Milliseconds()
	if err := s.ledger.Put(&c.rec); err != nil {
		s.log.Warnw("ledger write failed", "op", c.rec.Op, "error", err,
			"request_id", middleware.GetReqID(r.Context()))
	}
}

// readUpload parses the multipart body and returns the "image" part. On
// failure it has already written the error response and returns ok=false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, c *call, limit int64, missing string) (upload, bool) {
	if r.ContentLength > limit {
		c.fail(w, http.StatusRequestEntityTooLarge, errUploadTooLarge)
		return upload{}, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.fail(w, http.StatusRequestEntityTooLarge, errUploadTooLarge)
			return upload{}, false
		}
		c.fail(w, http.StatusBadRequest, missing)
		return upload{}, false
	}
	f, hdr, err := r.FormFile("image")
	if err != nil {
		// A part without a file name is parsed as a plain value.
		if _, ok := r.MultipartForm.Value["image"]; ok {
			c.fail(w, http.StatusBadRequest, errNoSelectedFile)
			return upload{}, false
		}
		c.fail(w, http.StatusBadRequest, missing)
		return upload{}, false
	}
	defer f.Close()
	c.rec.FileName = hdr.Filename
	data, err := io.ReadAll(f)
	if err != nil {
		c.fail(w, http.StatusBadRequest, missing)
		return upload{}, false
	}
	c.rec.ImageBytes = int64(len(data))
	return upload{name: hdr.Filename, data: data}, true
}

func cleanupForm(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

func (s *Server) handleCapacity(w http.ResponseWriter, r *http.Request) {
	c := newCall(ledger.OpCapacity)
	defer s.record(r, c)
	defer cleanupForm(r)
	cfg := s.current()

	up, ok := s.readUpload(w, r, c, cfg.maxUploadBytes, errMissingImage)
	if !ok {
		return
	}
	info, err := cfg.engine.Capacity(bytes.NewReader(up.data))
	if err != nil {
		switch {
		case errors.Is(err, stego.ErrImageTooLarge):
			c.fail(w, http.StatusRequestEntityTooLarge, errImageTooLarge)
			return
		case errors.Is(err, stego.ErrUnsupportedImage):
			c.fail(w, http.StatusUnprocessableEntity, errUnsupportedImage)
			return
		}
		s.log.Errorw("capacity failed", "file", up.name, "error", err)
		c.fail(w, http.StatusInternalServerError, errCapacityFailed)
		return
	}
	c.info(info)
	writeJSON(w, http.StatusOK, map[string]int{"capacity": info.Capacity})
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	c := newCall(ledger.OpEncode)
	defer s.record(r, c)
	defer cleanupForm(r)
	cfg := s.current()

	up, ok := s.readUpload(w, r, c, cfg.maxUploadBytes, errMissingImageText)
	if !ok {
		return
	}
	text := r.FormValue("text")
	if text == "" {
		c.fail(w, http.StatusBadRequest, errMissingImageText)
		return
	}

	out, info, err := cfg.engine.Encode(bytes.NewReader(up.data), text, r.FormValue("password"))
	c.info(info)
	if err != nil {
		switch {
		case errors.Is(err, stego.ErrImageTooLarge):
			c.fail(w, http.StatusRequestEntityTooLarge, errImageTooLarge)
		case errors.Is(err, stego.ErrUnsupportedImage):
			c.fail(w, http.StatusUnprocessableEntity, errUnsupportedImage)
		case errors.Is(err, stego.ErrPayloadTooLarge), errors.Is(err, stego.ErrMessageTooLong):
			c.fail(w, http.StatusBadRequest, errTooLong)
		default:
			s.log.Errorw("encode failed", "file", up.name, "error", err)
			c.fail(w, http.StatusInternalServerError, errEncodeFailed)
		}
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="encoded_image.png"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	c := newCall(ledger.OpDecode)
	defer s.record(r, c)
	defer cleanupForm(r)
	cfg := s.current()

	up, ok := s.readUpload(w, r, c, cfg.maxUploadBytes, errMissingImage)
	if !ok {
		return
	}
	text, info, err := cfg.engine.Decode(bytes.NewReader(up.data), r.FormValue("password"))
	c.info(info)
	if err != nil {
		switch {
		case errors.Is(err, stego.ErrImageTooLarge):
			c.fail(w, http.StatusRequestEntityTooLarge, errImageTooLarge)
		case errors.Is(err, stego.ErrPasswordRequired):
			c.fail(w, http.StatusForbidden, errPasswordRequired)
		case errors.Is(err, stego.ErrBadPassword):
			c.fail(w, http.StatusForbidden, errBadPassword)
		default:
			s.log.Infow("decode found no message", "file", up.name, "error", err)
			c.fail(w, http.StatusInternalServerError, errUndecodable)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (s *Server) handleGenerateQR(w http.ResponseWriter, r *http.Request) {
	c := newCall(ledger.OpQR)
	defer s.record(r, c)
	cfg := s.current()

	var in struct {
		Content string `json:"content"`
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(&in); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.fail(w, http.StatusRequestEntityTooLarge, errUploadTooLarge)
			return
		}
		c.fail(w, http.StatusBadRequest, errBadJSON)
		return
	}
	c.rec.PayloadBytes = len(in.Content)

	uri, err := cfg.qr.DataURI(in.Content)
	if err != nil {
		switch {
		case errors.Is(err, qrcode.ErrEmptyContent):
			c.fail(w, http.StatusBadRequest, errMissingContent)
		case errors.Is(err, qrcode.ErrContentTooLong):
			c.fail(w, http.StatusBadRequest, errContentTooLong)
		default:
			s.log.Errorw("qr generation failed", "error", err)
			c.fail(w, http.StatusInternalServerError, errQRFailed)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"qr_code": uri})
}

type activity struct {
	Records []ledger.Record `json:"records"`
	Stats   ledger.Stats    `json:"stats"`
}

func (s *Server) loadActivity(limit int) (activity, error) {
	out := activity{Records: []ledger.Record{}}
	if s.ledger == nil {
		return out, nil
	}
	recs, err := s.ledger.Recent(limit)
	if err != nil {
		return out, err
	}
	if recs != nil {
		out.Records = recs
	}
	out.Stats, err = s.ledger.Stats()
	return out, err
}

func activityLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	switch {
	case err != nil || n <= 0:
		return defaultActivityRows
	case n > maxActivityRows:
		return maxActivityRows
	}
	return n
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	act, err := s.loadActivity(activityLimit(r))
	if err != nil {
		s.log.Errorw("load activity failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not load activity")
		return
	}
	writeJSON(w, http.StatusOK, act)
}
