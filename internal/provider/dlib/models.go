package dlib

// EncodeRequest for POST /encode
type EncodeRequest struct {
	Img     string `json:"img"`     // base64 encoded image
	Model   string `json:"model"`   // "hog" or "cnn"
	Jitters int    `json:"jitters"` // re-sampling passes for higher accuracy
}

// EncodeResponse from POST /encode
type EncodeResponse struct {
	Results []EncodeResult `json:"results"`
}

type EncodeResult struct {
	Box       Box       `json:"box"`
	Embedding []float64 `json:"embedding"`
}

// Box follows the dlib (top, right, bottom, left) tuple convention.
type Box struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}
