package model

// Tag labels catalog exercises, e.g. a muscle group or equipment.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Exercise is an entry of the searchable exercise catalog.
type Exercise struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Tags []Tag  `json:"tags,omitempty"`
}
