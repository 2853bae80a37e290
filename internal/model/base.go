package model

// SortOrder represents sorting parameters
type SortOrder struct {
	Field string `json:"field" form:"sort_field"`
	Dir   string `json:"direction" form:"sort_dir"`
}

// JSONMap represents a generic JSON object
type JSONMap map[string]interface{}
