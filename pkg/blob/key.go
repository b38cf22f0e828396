package blob

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	projectRe  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,99}$`)
	unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

const maxBaseName = 100

// ValidProject reports whether project can be used as a key namespace.
func ValidProject(project string) bool {
	return projectRe.MatchString(project) && !strings.Contains(project, "..")
}

// keyspace maps between public storage keys ("/uploads/blog/cat.jpg-<uuid>.webp")
// and backend-relative names ("blog/cat.jpg-<uuid>.webp").
type keyspace struct {
	prefix string
}

func newKeyspace(prefix string) keyspace {
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" {
		prefix = DefaultPublicPrefix
	}
	return keyspace{prefix: prefix}
}

// next builds a fresh key for suggestedName. The random suffix goes before the
// extension so identical names never collide.
func (k keyspace) next(project, suggestedName string) (key, rel string, err error) {
	if !ValidProject(project) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidProject, project)
	}
	name := path.Base(strings.ReplaceAll(suggestedName, "\\", "/"))
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	base = strings.Trim(unsafeName.ReplaceAllString(base, "_"), "._")
	if base == "" {
		base = "file"
	}
	if len(base) > maxBaseName {
		base = base[:maxBaseName]
	}
	ext = unsafeName.ReplaceAllString(ext, "")
	if ext == "." {
		ext = ""
	}

	rel = fmt.Sprintf("%s/%s-%s%s", project, base, uuid.NewString(), ext)
	return k.prefix + "/" + rel, rel, nil
}

func (k keyspace) rel(key string) (string, error) {
	if !strings.HasPrefix(key, k.prefix+"/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	rel := strings.TrimPrefix(key, k.prefix+"/")
	project, file, ok := strings.Cut(rel, "/")
	if !ok || !ValidProject(project) || file == "" || strings.Contains(file, "/") ||
		file == "." || file == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return rel, nil
}

func (k keyspace) key(rel string) string {
	return k.prefix + "/" + rel
}

func (k keyspace) projectPrefix(project string) (string, error) {
	if project == "" {
		return "", nil
	}
	if !ValidProject(project) {
		return "", fmt.Errorf("%w: %q", ErrInvalidProject, project)
	}
	return project + "/", nil
}
