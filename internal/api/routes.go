package api

import "net/http"

func RegisterRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /match", handler.HandleMatch)
	mux.HandleFunc("POST /match/batch", handler.HandleMatchBatch)
}
