package server

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/thepwagner/schemarepo/pkg/checksum"
	"github.com/thepwagner/schemarepo/pkg/objects"
)

// Handler serves an object store over the protocol spoken by objects.HTTPObjects.
type Handler struct {
	mux *chi.Mux

	objects       objects.Objects
	maxObjectSize int64
}

// DefaultMaxObjectSize is used when NewHandler is given no limit.
const DefaultMaxObjectSize = 16 << 20

func NewHandler(objs objects.Objects, maxObjectSize int64) *Handler {
	if maxObjectSize <= 0 {
		maxObjectSize = DefaultMaxObjectSize
	}
	h := &Handler{
		mux:           chi.NewRouter(),
		objects:       objs,
		maxObjectSize: maxObjectSize,
	}
	h.mux.Use(middleware.RequestID)
	h.mux.Use(middleware.RealIP)
	h.mux.Use(Logger)
	h.mux.Get("/objects/{checksum}", h.GetObject)
	h.mux.Put("/objects/{checksum}", h.PutObject)
	return h
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h Handler) GetObject(w http.ResponseWriter, r *http.Request) {
	sum, err := checksum.Parse(chi.URLParam(r, "checksum"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	slog.Debug("handling GetObject",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("checksum", sum.String()),
	)

	src, err := h.objects.GetObject(r.Context(), sum)
	if err != nil {
		slog.Error("objects.GetObject", slog.String("error", err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if src == nil {
		http.NotFound(w, r)
		return
	}

	b, err := src.Bytes()
	if err != nil {
		slog.Error("source.Bytes", slog.String("error", err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	_, _ = w.Write(b)
}

func (h Handler) PutObject(w http.ResponseWriter, r *http.Request) {
	sum, err := checksum.Parse(chi.URLParam(r, "checksum"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	slog.Debug("handling PutObject",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("checksum", sum.String()),
		slog.Bool("force", force),
	)

	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxObjectSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if actual := checksum.Sum(b); actual != sum {
		http.Error(w, "content hashes to "+actual.String(), http.StatusBadRequest)
		return
	}

	written, err := h.objects.PutObject(r.Context(), sum, bytes.NewReader(b), force)
	if err != nil {
		slog.Error("objects.PutObject", slog.String("error", err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if written {
		w.WriteHeader(http.StatusCreated)
	} else {
		w.WriteHeader(http.StatusOK)
	}
}
