// Command gradcam turns a JSON dump of activation and gradient maps into
// a Grad-CAM overlay and an optional heatmap chart, without running the
// HTTP server. The dump uses the same schema as the /explain endpoint.
package main

import (
	"encoding/json"
	"flag"
	"image"
	_ "image/jpeg"
	"image/png"
	"log"
	"os"

	"github.com/nfnt/resize"
	"github.com/rbarden/gradcam-api/internal/gradcam"
	"github.com/rbarden/gradcam-api/internal/model"
)

func main() {
	mapsPath := flag.String("maps", "maps.json", "JSON file with shape, activations and gradients")
	imagePath := flag.String("image", "", "input image to blend the heatmap over")
	outPath := flag.String("out", "overlay.png", "output PNG for the overlay")
	plotPath := flag.String("plot", "", "optional output PNG for a heatmap chart with legend")
	alpha := flag.Float64("alpha", 0.5, "heatmap share of the blend, in [0, 1]")
	maxSize := flag.Int("max-size", 0, "downscale the input image so its longest side fits this many pixels")
	flag.Parse()

	raw, err := os.ReadFile(*mapsPath)
	if err != nil {
		log.Fatalf("Failed to read maps file: %v", err)
	}

	var req model.ExplainRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		log.Fatalf("Failed to parse maps file: %v", err)
	}
	if len(req.Shape) != 3 {
		log.Fatalf("Shape must be [channels, height, width], got %v", req.Shape)
	}

	acts, err := gradcam.NewFeatureMap(req.Shape[0], req.Shape[1], req.Shape[2], req.Activations)
	if err != nil {
		log.Fatalf("Bad activations: %v", err)
	}
	grads, err := gradcam.NewFeatureMap(req.Shape[0], req.Shape[1], req.Shape[2], req.Gradients)
	if err != nil {
		log.Fatalf("Bad gradients: %v", err)
	}

	heatmap, err := gradcam.Synthesize(acts, grads)
	if err != nil {
		log.Fatalf("Heatmap synthesis failed: %v", err)
	}

	if *plotPath != "" {
		if err := gradcam.SavePlot(heatmap, "Grad-CAM", *plotPath); err != nil {
			log.Fatalf("Failed to save heatmap chart: %v", err)
		}
		log.Printf("Heatmap chart written to %s", *plotPath)
	}

	if *imagePath == "" {
		if *plotPath == "" {
			log.Fatal("Nothing to do: pass -image and/or -plot")
		}
		return
	}

	f, err := os.Open(*imagePath)
	if err != nil {
		log.Fatalf("Failed to open image: %v", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		log.Fatalf("Failed to decode image: %v", err)
	}
	log.Printf("Image format: %s, dimensions: %dx%d", format, img.Bounds().Dx(), img.Bounds().Dy())

	if *maxSize > 0 {
		img = resize.Thumbnail(uint(*maxSize), uint(*maxSize), img, resize.Lanczos3)
	}

	blended, err := gradcam.Overlay(heatmap, img, *alpha)
	if err != nil {
		log.Fatalf("Overlay failed: %v", err)
	}

	out, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer out.Close()

	if err := png.Encode(out, blended); err != nil {
		log.Fatalf("Failed to encode overlay: %v", err)
	}
	log.Printf("Overlay written to %s", *outPath)
}
