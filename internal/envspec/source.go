package envspec

import (
	"path"
	"strings"
)

// sourceScheme is the recognized source-control locator prefix for secondary
// dependency entries: git+<url>[@<revision>].
const sourceScheme = "git+"

// isSourceEntry reports whether a secondary dependency entry is a
// source-control locator.
func isSourceEntry(entry string) bool {
	return strings.HasPrefix(entry, sourceScheme)
}

// parseSourceReference splits a git+<url>[@<revision>] locator. The revision
// separator is the last "@" after the final path separator, so user info in
// the URL authority (git+ssh://git@host/...) is left alone.
func parseSourceReference(entry string) (SourceReference, error) {
	rest := strings.TrimPrefix(entry, sourceScheme)
	if !strings.Contains(rest, "://") {
		return SourceReference{}, &InvalidConstraintError{Entry: entry, Reason: "source locator is not a URL"}
	}

	url := rest
	revision := ""
	if at := strings.LastIndex(rest, "@"); at > strings.LastIndex(rest, "/") {
		url = rest[:at]
		revision = rest[at+1:]
		if revision == "" {
			return SourceReference{}, &InvalidConstraintError{Entry: entry, Reason: "empty revision after @"}
		}
	}
	if url == "" {
		return SourceReference{}, &InvalidConstraintError{Entry: entry, Reason: "empty repository URL"}
	}

	return SourceReference{RepositoryURL: url, Revision: revision}, nil
}

// PackageName derives a package name from the repository URL path, e.g.
// "https://github.com/CosmiQ/solaris.git" -> "solaris".
func (s SourceReference) PackageName() string {
	base := path.Base(s.RepositoryURL)
	return strings.TrimSuffix(base, ".git")
}

// Locator renders the reference back to its manifest form.
func (s SourceReference) Locator() string {
	if s.Revision == "" {
		return sourceScheme + s.RepositoryURL
	}
	return sourceScheme + s.RepositoryURL + "@" + s.Revision
}
