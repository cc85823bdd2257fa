package dto

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

type DetailedHealthResponse struct {
	Status            string           `json:"status"`
	Stages            []string         `json:"stages"`
	ScopeCacheReady   bool             `json:"scope_cache_ready"`
	EmbeddingBackend  string           `json:"embedding_backend"`
	GenerationBackend string           `json:"generation_backend"`
	Collections       map[string]int64 `json:"collections"`
	Database          string           `json:"database"`
	Redis             string           `json:"redis"`
}

type ProviderHealth struct {
	Name    string `json:"name"`
	Model   string `json:"model"`
	Healthy bool   `json:"healthy"`
	Active  bool   `json:"active"`
}
