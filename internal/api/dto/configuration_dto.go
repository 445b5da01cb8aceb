package dto

// SetConfigurationRequest upserts one tenant configuration entry.
type SetConfigurationRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
