package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"study-ai/internal/api"
	"study-ai/internal/config"
	"study-ai/internal/db"
	"study-ai/internal/services"
)

func main() {
	cfg := config.Load()

	conn, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer conn.Close()

	pdfService := services.NewPDFService()
	aiService := services.NewAIService(cfg.OpenAIKey, cfg.OpenAIModel)
	store := services.NewArtifactStore(cfg.ProblemsDir, cfg.SummariesDir)
	historyService := services.NewHistoryService(conn)
	markdownService := services.NewMarkdownService()
	studySetService := services.NewStudySetService(pdfService, aiService, store, historyService, cfg.OpenAIModel)

	server := api.NewServer(studySetService, store, historyService, markdownService)
	mux := http.NewServeMux()

	mux.HandleFunc("/", serveFile("./internal/web/index.html"))
	mux.HandleFunc("/problems", serveFile("./internal/web/problems.html"))
	mux.HandleFunc("/summaries", serveFile("./internal/web/summaries.html"))

	mux.Handle("/api", server.Handler())
	mux.Handle("/api/", server.Handler())
	mux.Handle("/data/", server.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("listening on :%s", port)

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// Generation blocks the response for the whole model round-trip.
		WriteTimeout: 5 * time.Minute,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}

func serveFile(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		http.ServeFile(w, r, path)
	}
}
