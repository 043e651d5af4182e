package model

import (
	"github.com/google/uuid"
)

// ResourceKind names one of the provisioned resource namespaces.
type ResourceKind string

const (
	KindSite       ResourceKind = "site"
	KindRedirect   ResourceKind = "redirect"
	KindGithubPage ResourceKind = "github_page"
)

var ResourceKinds = []ResourceKind{KindSite, KindRedirect, KindGithubPage}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
