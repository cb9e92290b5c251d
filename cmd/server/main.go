package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rbarden/gradcam-api/internal/handlers"
	"github.com/rbarden/gradcam-api/internal/model"
)

func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func main() {
	modelDir := flag.String("model-dir", "", "directory containing model.onnx and model_metadata.json")
	port := flag.String("port", "", "listen port (defaults to $PORT, then 8080)")
	flag.Parse()

	dir := *modelDir
	if dir == "" {
		execPath, err := os.Getwd()
		if err != nil {
			log.Fatalf("Failed to get working directory: %v", err)
		}

		// If running from cmd/server, go up two levels
		if filepath.Base(execPath) == "server" {
			execPath = filepath.Join(execPath, "../..")
		}
		dir = filepath.Join(execPath, "models")
	}

	modelPath := filepath.Join(dir, "model.onnx")
	metadataPath := filepath.Join(dir, "model_metadata.json")

	log.Printf("Loading model from: %s", modelPath)

	modelServer, err := model.NewServer(modelPath, metadataPath)
	if err != nil {
		log.Fatalf("Failed to initialize model server: %v", err)
	}
	defer modelServer.Close()

	handler := handlers.NewHandler(modelServer)

	http.HandleFunc("/health", enableCORS(handler.Health))
	http.HandleFunc("/predict", enableCORS(handler.Predict))
	http.HandleFunc("/predict/image", enableCORS(handler.PredictFromImage))
	http.HandleFunc("/explain", enableCORS(handler.Explain))
	http.HandleFunc("/explain/overlay", enableCORS(handler.ExplainOverlay))

	listenPort := *port
	if listenPort == "" {
		listenPort = os.Getenv("PORT")
	}
	if listenPort == "" {
		listenPort = "8080"
	}

	log.Printf("Server starting on port %s", listenPort)
	log.Printf("Model loaded: %s", modelPath)
	log.Printf("Classes: %v", modelServer.Metadata.Classes)
	log.Println("Endpoints:")
	log.Println("  GET  /health          - Health check")
	log.Println("  POST /predict         - Raw array prediction")
	log.Println("  POST /predict/image   - Predict from image upload")
	log.Println("  POST /explain         - Grad-CAM heatmap from activation/gradient maps")
	log.Println("  POST /explain/overlay - Heatmap blended over an uploaded image")

	if err := http.ListenAndServe(":"+listenPort, nil); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
