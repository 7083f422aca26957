package restconv

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/restconv/restconv/internal/pathexp"
)

// routeArtifactName is the fixed key under which the compiled route table
// is stored.
const routeArtifactName = "routes.json"

// artifactVersion guards against loading artifacts written by an
// incompatible serialization. Bump when routeArtifact changes shape.
const artifactVersion = 1

// BlobStore is the route-cache collaborator: a blob get/put keyed by a
// fixed artifact name. Get errors make the engine recompile; Put errors
// are non-fatal to request serving but are logged for the operator.
type BlobStore interface {
	Get(name string) ([]byte, error)
	Put(name string, data []byte) error
}

// DirStore is a BlobStore backed by a directory. Writes go through a
// temporary file and a rename, so a concurrent reader never observes a
// half-written artifact.
type DirStore struct {
	dir string
}

// NewDirStore returns a store rooted at dir. The directory is created on
// first Put.
func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

func (s *DirStore) Get(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.dir, name))
}

func (s *DirStore) Put(name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, name+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, name))
}

// tableArtifact is the serialized form of a compiled route table.
type tableArtifact struct {
	Version int             `json:"version"`
	Routes  []routeArtifact `json:"routes"`
}

type routeArtifact struct {
	Verb    string `json:"verb"`
	Pattern string `json:"pattern"`
	Service string `json:"service"`
	Method  string `json:"method"`
}

// encodeTable serializes the table. Verbs are emitted sorted and entries
// in insertion order, so identical tables always encode to identical
// bytes; that determinism is what makes the artifact cacheable.
func encodeTable(t *RouteTable) ([]byte, error) {
	verbs := t.Verbs()
	sort.Strings(verbs)

	art := tableArtifact{Version: artifactVersion}
	for _, verb := range verbs {
		for _, e := range t.entries[verb] {
			art.Routes = append(art.Routes, routeArtifact{
				Verb:    e.Verb,
				Pattern: e.Pattern,
				Service: e.service.name,
				Method:  e.method.name,
			})
		}
	}
	return json.MarshalIndent(art, "", "  ")
}

// decodeTable rebuilds a route table from a serialized artifact,
// re-linking each entry to its live descriptor by service and method
// name. Any inconsistency (version skew, unknown service or method, bad
// pattern) returns an error; callers fall back to a clean recompile.
func decodeTable(data []byte, services []*Service) (*RouteTable, error) {
	var art tableArtifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("decode route artifact: %w", err)
	}
	if art.Version != artifactVersion {
		return nil, fmt.Errorf("route artifact version %d, want %d", art.Version, artifactVersion)
	}

	byName := make(map[string]*Service, len(services))
	for _, s := range services {
		byName[s.name] = s
	}

	t := NewRouteTable()
	for _, r := range art.Routes {
		svc, ok := byName[r.Service]
		if !ok {
			return nil, fmt.Errorf("route artifact references unknown service %q", r.Service)
		}
		m, ok := svc.method(r.Method)
		if !ok {
			return nil, fmt.Errorf("route artifact references unknown method %s.%s", r.Service, r.Method)
		}
		compiled, err := pathexp.Compile(r.Pattern)
		if err != nil {
			return nil, err
		}
		t.add(&RouteEntry{
			Verb:     r.Verb,
			Pattern:  r.Pattern,
			service:  svc,
			method:   m,
			defaults: positionalDefaults(m),
			compiled: compiled,
		}, nil)
	}
	return t, nil
}
