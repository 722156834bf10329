package news

import (
	"net/http"

	"itnews-radar/internal/usecase/ingest"
)

// Register mounts the news endpoints on mux. guard wraps the write route
// (POST /ingest) and may be nil; read and preview routes stay public.
func Register(mux *http.ServeMux, ingestor Ingestor, retriever Retriever, scorer ingest.Scorer, guard func(http.Handler) http.Handler) {
	var ingestHandler http.Handler = IngestHandler{Svc: ingestor}
	if guard != nil {
		ingestHandler = guard(ingestHandler)
	}
	mux.Handle("POST /ingest", ingestHandler)
	mux.Handle("GET /retrieve", RetrieveHandler{Svc: retriever})
	mux.Handle("GET /items/{id}", GetHandler{Svc: retriever})
	mux.Handle("POST /score", ScoreHandler{Scorer: scorer, Threshold: ingestor.Threshold()})
}
