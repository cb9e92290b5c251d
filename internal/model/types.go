package model

type Metadata struct {
	InputShape   []int64  `json:"input_shape"`
	OutputShape  []int64  `json:"output_shape"`
	FeatureShape []int64  `json:"feature_shape,omitempty"`
	Classes      []string `json:"classes"`
	ImageSize    int      `json:"image_size"`
}

type PredictionRequest struct {
	Image []float32 `json:"image"`
}

type PredictionResponse struct {
	Class       string             `json:"class"`
	Confidence  float32            `json:"confidence"`
	Predictions map[string]float32 `json:"predictions"`
	Features    *FeatureTensor     `json:"features,omitempty"`
}

// FeatureTensor carries the activations of the convolutional layer a
// model exports for Grad-CAM, in CHW order.
type FeatureTensor struct {
	Shape []int64   `json:"shape"`
	Data  []float32 `json:"data"`
}

// ExplainRequest holds the two maps an external framework produced after
// a backward pass, plus the output resolution for the heatmap. Shape is
// [channels, height, width] and applies to both arrays.
type ExplainRequest struct {
	Shape       []int     `json:"shape"`
	Activations []float32 `json:"activations"`
	Gradients   []float32 `json:"gradients"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
}

type ExplainResponse struct {
	Width   int         `json:"width"`
	Height  int         `json:"height"`
	Heatmap [][]float64 `json:"heatmap"`
}
