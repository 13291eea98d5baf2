package usecases

import (
	"fmt"
	"strings"
)

// Links builds absolute hypermedia links to stop resources.
type Links struct {
	baseURL string
}

// NewLinks returns a Links rooted at baseURL (e.g. "http://localhost:8888").
func NewLinks(baseURL string) Links {
	return Links{baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Stop returns the canonical URI of a stop.
func (l Links) Stop(id int64) string {
	return fmt.Sprintf("%s/stops/%d", l.baseURL, id)
}
