package handlers

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/nfnt/resize"
	"github.com/rbarden/gradcam-api/internal/gradcam"
	"github.com/rbarden/gradcam-api/internal/model"
)

// DefaultOverlayAlpha is the heatmap share of the blend when a request
// does not specify one.
const DefaultOverlayAlpha = 0.5

// Predictor is the slice of the model server the handlers need. Kept as
// an interface so tests can run without an ONNX runtime.
type Predictor interface {
	Predict(input []float32) (*model.PredictionResponse, error)
	Meta() model.Metadata
}

type Handler struct {
	predictor Predictor
}

func NewHandler(predictor Predictor) *Handler {
	return &Handler{
		predictor: predictor,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req model.PredictionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	meta := h.predictor.Meta()
	expectedSize := int(meta.InputShape[0])
	for _, dim := range meta.InputShape[1:] {
		expectedSize *= int(dim)
	}

	if len(req.Image) != expectedSize {
		http.Error(w, fmt.Sprintf("Expected %d values, got %d", expectedSize, len(req.Image)),
			http.StatusBadRequest)
		return
	}

	result, err := h.predictor.Predict(req.Image)
	if err != nil {
		log.Printf("Prediction error: %v", err)
		http.Error(w, "Prediction failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// preprocessImage converts an image to the format expected by the model
func (h *Handler) preprocessImage(img image.Image) ([]float32, error) {
	targetSize := uint(h.predictor.Meta().ImageSize)

	resized := resize.Resize(targetSize, targetSize, img, resize.Lanczos3)

	bounds := resized.Bounds()
	width, height := bounds.Max.X, bounds.Max.Y

	channels := 3
	inputData := make([]float32, channels*width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()

			rNorm := float32(r) / 65535.0
			gNorm := float32(g) / 65535.0
			bNorm := float32(b) / 65535.0

			pixelIndex := y*width + x
			inputData[pixelIndex] = rNorm
			inputData[width*height+pixelIndex] = gNorm
			inputData[2*width*height+pixelIndex] = bNorm
		}
	}

	return inputData, nil
}

func (h *Handler) PredictFromImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Parse multipart form (10MB max)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "No image file provided. Use 'image' as the form field name", http.StatusBadRequest)
		return
	}
	defer file.Close()

	log.Printf("Received file: %s, size: %d bytes", header.Filename, header.Size)

	img, format, err := image.Decode(file)
	if err != nil {
		http.Error(w, "Invalid image format. Supported: JPEG, PNG", http.StatusBadRequest)
		return
	}

	log.Printf("Image format: %s, dimensions: %dx%d", format, img.Bounds().Dx(), img.Bounds().Dy())

	inputData, err := h.preprocessImage(img)
	if err != nil {
		log.Printf("Preprocessing error: %v", err)
		http.Error(w, "Failed to preprocess image", http.StatusInternalServerError)
		return
	}

	result, err := h.predictor.Predict(inputData)
	if err != nil {
		log.Printf("Prediction error: %v", err)
		http.Error(w, "Prediction failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// featureMaps validates an explain request and builds the two maps.
func featureMaps(req *model.ExplainRequest) (acts, grads gradcam.FeatureMap, err error) {
	if len(req.Shape) != 3 {
		return acts, grads, fmt.Errorf("shape must be [channels, height, width], got %v", req.Shape)
	}
	c, y, x := req.Shape[0], req.Shape[1], req.Shape[2]

	acts, err = gradcam.NewFeatureMap(c, y, x, req.Activations)
	if err != nil {
		return acts, grads, fmt.Errorf("activations: %w", err)
	}
	grads, err = gradcam.NewFeatureMap(c, y, x, req.Gradients)
	if err != nil {
		return acts, grads, fmt.Errorf("gradients: %w", err)
	}
	return acts, grads, nil
}

// Explain synthesizes a Grad-CAM heatmap from caller-supplied activation
// and gradient maps and returns it as JSON rows.
func (h *Handler) Explain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.ExplainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	acts, grads, err := featureMaps(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	heatmap, err := gradcam.Synthesize(acts, grads)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Width > 0 && req.Height > 0 {
		heatmap = heatmap.Rescale(req.Width, req.Height)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(model.ExplainResponse{
		Width:   heatmap.Width,
		Height:  heatmap.Height,
		Heatmap: heatmap.Rows(),
	})
}

// ExplainOverlay blends the heatmap over an uploaded image and responds
// with a PNG at the image's resolution. Expects a multipart form with an
// "image" file, a "maps" JSON field (same schema as /explain) and an
// optional "alpha" field.
func (h *Handler) ExplainOverlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "No image file provided. Use 'image' as the form field name", http.StatusBadRequest)
		return
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		http.Error(w, "Invalid image format. Supported: JPEG, PNG", http.StatusBadRequest)
		return
	}

	var req model.ExplainRequest
	if err := json.Unmarshal([]byte(r.FormValue("maps")), &req); err != nil {
		http.Error(w, "Invalid maps JSON. Use 'maps' as the form field name", http.StatusBadRequest)
		return
	}

	alpha := DefaultOverlayAlpha
	if v := r.FormValue("alpha"); v != "" {
		alpha, err = strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "Invalid alpha value", http.StatusBadRequest)
			return
		}
	}

	acts, grads, err := featureMaps(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	heatmap, err := gradcam.Synthesize(acts, grads)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	blended, err := gradcam.Overlay(heatmap, img, alpha)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, blended); err != nil {
		log.Printf("Overlay encode error: %v", err)
	}
}
