package domain

// EmbeddingDim is the fixed length of every face embedding vector.
const EmbeddingDim = 128

// UnknownIdentity is reported when a query embedding matches nobody.
const UnknownIdentity = "Unknown"

// Embedding é o vetor numérico de 128 dimensões que resume uma face
// detectada. Imutável depois de produzido pelo embedder.
type Embedding []float64

// MatchResult é o resultado de uma consulta de reconhecimento. Nunca é
// persistido; é apenas um valor de resposta.
type MatchResult struct {
	Matched    bool    `json:"matched"`
	Identity   string  `json:"identity"`
	Confidence float64 `json:"confidence"`
	Distance   float64 `json:"distance"`
	// Untrained distinguishes "the gallery is empty" from a normal
	// non-match against enrolled identities.
	Untrained bool `json:"untrained,omitempty"`
}

// PersonSummary describes one enrolled identity in the roster.
type PersonSummary struct {
	Name      string `json:"name"`
	FaceCount int    `json:"face_count"`
}

// Stats aggregates the roster for the stats endpoint.
type Stats struct {
	TotalPeople int             `json:"total_people"`
	TotalFaces  int             `json:"total_faces"`
	People      []PersonSummary `json:"people"`
}
