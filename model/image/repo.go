// Package image models container image repositories hosted on the platform
// registry.
package image

// Repo describes an image repository and the tags published under it.
type Repo struct {
	ID         string   `json:"Id"`
	Namespace  string   `json:"Namespace"`
	Name       string   `json:"Name"`
	Preset     bool     `json:"Preset"`
	CreateTime string   `json:"CreateTime"`
	UpdateTime string   `json:"UpdateTime"`
	Purposes   []string `json:"Purposes"`
	Tags       []string `json:"Tags"`
	Domain     string   `json:"Domain"`
	Labels     []string `json:"Labels"`
	Registry   string   `json:"Registry"`
}

// HasTag reports whether the repo publishes the given image URL.
func (r *Repo) HasTag(url string) bool {
	for _, tag := range r.Tags {
		if tag == url {
			return true
		}
	}
	return false
}
