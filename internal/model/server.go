package model

import (
	"encoding/json"
	"fmt"
	"os"

	ort "github.com/yalue/onnxruntime_go"
)

// Server wraps an ONNX Runtime session. Models may export the activations
// of their last convolutional layer as a second output named "features";
// when the metadata declares a feature_shape, those activations are
// captured on every prediction so callers can run Grad-CAM against them.
type Server struct {
	session       *ort.AdvancedSession
	Metadata      Metadata
	inputTensor   *ort.Tensor[float32]
	outputTensor  *ort.Tensor[float32]
	featureTensor *ort.Tensor[float32]
}

func NewServer(modelPath, metadataPath string) (*Server, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	metaFile, err := os.ReadFile(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(metaFile, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	inputShape := ort.NewShape(metadata.InputShape...)
	outputShape := ort.NewShape(metadata.OutputShape...)

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	outputNames := []string{"output"}
	outputs := []ort.ArbitraryTensor{outputTensor}

	var featureTensor *ort.Tensor[float32]
	if len(metadata.FeatureShape) > 0 {
		featureTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(metadata.FeatureShape...))
		if err != nil {
			inputTensor.Destroy()
			outputTensor.Destroy()
			return nil, fmt.Errorf("failed to create feature tensor: %w", err)
		}
		outputNames = append(outputNames, "features")
		outputs = append(outputs, featureTensor)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, outputNames,
		[]ort.ArbitraryTensor{inputTensor}, outputs,
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		if featureTensor != nil {
			featureTensor.Destroy()
		}
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Server{
		session:       session,
		Metadata:      metadata,
		inputTensor:   inputTensor,
		outputTensor:  outputTensor,
		featureTensor: featureTensor,
	}, nil
}

// Meta returns the loaded model metadata.
func (s *Server) Meta() Metadata {
	return s.Metadata
}

func (s *Server) Predict(inputData []float32) (*PredictionResponse, error) {
	copy(s.inputTensor.GetData(), inputData)

	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	outputData := s.outputTensor.GetData()

	maxIdx := 0
	maxVal := outputData[0]
	predictions := make(map[string]float32)

	for i, val := range outputData {
		if i < len(s.Metadata.Classes) {
			predictions[s.Metadata.Classes[i]] = val
			if val > maxVal {
				maxVal = val
				maxIdx = i
			}
		}
	}

	resp := &PredictionResponse{
		Class:       s.Metadata.Classes[maxIdx],
		Confidence:  maxVal,
		Predictions: predictions,
	}

	if s.featureTensor != nil {
		resp.Features = &FeatureTensor{
			Shape: append([]int64(nil), s.Metadata.FeatureShape...),
			Data:  append([]float32(nil), s.featureTensor.GetData()...),
		}
	}

	return resp, nil
}

func (s *Server) Close() {
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
	}
	if s.featureTensor != nil {
		s.featureTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
	ort.DestroyEnvironment()
}
