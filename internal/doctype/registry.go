// Package doctype bundles, per family of legal documents, the schema
// descriptor, the extraction instructions and the post-merge checks.
package doctype

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/joseph-ayodele/legaldoc-extractor/constants"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/common"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/schema"
)

//go:embed schemas/*.yaml instructions/*.md
var builtinFS embed.FS

// Type is everything the extraction engine needs to process one document family.
type Type struct {
	Name         string
	Description  string
	Schema       *schema.Descriptor
	Instructions string
	Hook         func(record map[string]any) (map[string]any, []string)
}

type Registry struct {
	mu    sync.RWMutex
	types map[string]*Type
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*Type)}
}

var builtinHooks = map[constants.DocumentType]func(map[string]any) (map[string]any, []string){
	constants.EstudioTitulos:     EstudioTitulosHook,
	constants.MinutaCancelacion:  MinutaCancelacionHook,
	constants.MinutaConstitucion: MinutaConstitucionHook,
}

// Builtin returns a registry holding the embedded document types.
func Builtin() (*Registry, error) {
	r := NewRegistry()
	for _, name := range constants.DocumentTypesAsStrings() {
		t, err := loadEmbedded(name)
		if err != nil {
			return nil, err
		}
		t.Hook = builtinHooks[constants.DocumentType(name)]
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func loadEmbedded(name string) (*Type, error) {
	sb, err := builtinFS.ReadFile("schemas/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded schema %s: %w", name, err)
	}
	d, err := schema.Parse(sb)
	if err != nil {
		return nil, fmt.Errorf("embedded schema %s: %w", name, err)
	}
	ib, err := builtinFS.ReadFile("instructions/" + name + ".md")
	if err != nil {
		return nil, fmt.Errorf("read embedded instructions %s: %w", name, err)
	}
	return &Type{
		Name:         name,
		Description:  d.Description,
		Schema:       d,
		Instructions: strings.TrimSpace(string(ib)),
	}, nil
}

// Register adds or replaces a type. The type needs a name and a schema.
func (r *Registry) Register(t *Type) error {
	if t == nil || strings.TrimSpace(t.Name) == "" {
		return common.NewAppError(common.CodeInvalidInput, "document type needs a name", common.ErrInvalidInput)
	}
	if t.Schema == nil {
		return common.NewAppError(common.CodeInvalidInput, fmt.Sprintf("document type %s has no schema", t.Name), common.ErrInvalidInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t.Name] = t
	return nil
}

// Get resolves name exactly first, then through the known synonyms.
func (r *Registry) Get(name string) (*Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.types[strings.TrimSpace(name)]; ok {
		return t, nil
	}
	if dt, ok := constants.CanonicalDocumentType(name); ok {
		if t, ok := r.types[string(dt)]; ok {
			return t, nil
		}
	}
	return nil, common.NewAppError(common.CodeUnknownDocType, fmt.Sprintf("unknown document type %q", name), common.ErrNotFound)
}

// Names lists registered type names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.types))
	for n := range r.types {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// LoadFile builds a custom type from a YAML descriptor and an optional
// instructions file. The type takes the descriptor's name and has no hook.
func LoadFile(schemaPath, instructionsPath string) (*Type, error) {
	d, err := schema.LoadFile(schemaPath)
	if err != nil {
		return nil, err
	}
	t := &Type{Name: d.Name, Description: d.Description, Schema: d}
	if instructionsPath != "" {
		b, err := os.ReadFile(instructionsPath)
		if err != nil {
			return nil, fmt.Errorf("read instructions %s: %w", instructionsPath, err)
		}
		t.Instructions = strings.TrimSpace(string(b))
	}
	return t, nil
}
