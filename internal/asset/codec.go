package asset

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fulmenhq/autocheck/internal/schema"
	"gopkg.in/yaml.v3"
)

// FormatVersion is the only asset file version understood.
const FormatVersion = 1

// ErrInvalidAsset is returned for files that cannot be parsed or that do
// not match the asset schema.
var ErrInvalidAsset = errors.New("invalid asset file")

type assetFile struct {
	Version int         `yaml:"version"`
	GUID    string      `yaml:"guid,omitempty"`
	Root    *nodeFile   `yaml:"root,omitempty"`
	Roots   []*nodeFile `yaml:"roots,omitempty"`
}

// documentOut keeps an empty roots list in the output.
type documentOut struct {
	Version int         `yaml:"version"`
	GUID    string      `yaml:"guid,omitempty"`
	Roots   []*nodeFile `yaml:"roots"`
}

type nodeFile struct {
	Name      string          `yaml:"name"`
	Link      *TemplateLink   `yaml:"link,omitempty"`
	Behaviors []*behaviorFile `yaml:"behaviors,omitempty"`
	Children  []*nodeFile     `yaml:"children,omitempty"`
}

type behaviorFile struct {
	Type   string         `yaml:"type"`
	Fields map[string]any `yaml:"fields,omitempty"`
}

// decodeFile parses and schema-checks raw asset bytes.
func decodeFile(path string, data []byte) (*assetFile, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAsset, path, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s: empty file", ErrInvalidAsset, path)
	}
	res, err := schema.Validate(raw, schema.AssetV1)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAsset, path, err)
	}
	if !res.Valid {
		return nil, fmt.Errorf("%w: %s: %s", ErrInvalidAsset, path, res.Error())
	}

	var f assetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAsset, path, err)
	}
	return &f, nil
}

// DecodeTemplate builds a template from file contents.
func DecodeTemplate(path string, data []byte) (*Template, error) {
	f, err := decodeFile(path, data)
	if err != nil {
		return nil, err
	}
	if f.Root == nil {
		return nil, fmt.Errorf("%w: %s: template files need a single root", ErrInvalidAsset, path)
	}
	root, err := f.Root.build()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAsset, path, err)
	}
	return &Template{Path: path, GUID: f.GUID, Root: root}, nil
}

// DecodeDocument builds a composite document from file contents.
func DecodeDocument(path string, data []byte) (*Document, error) {
	f, err := decodeFile(path, data)
	if err != nil {
		return nil, err
	}
	if f.Root != nil {
		return nil, fmt.Errorf("%w: %s: documents list their nodes under roots", ErrInvalidAsset, path)
	}
	doc := NewDocument(path)
	doc.GUID = f.GUID
	for _, nf := range f.Roots {
		n, err := nf.build()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAsset, path, err)
		}
		doc.AddRoot(n)
	}
	return doc, nil
}

func (nf *nodeFile) build() (*Node, error) {
	n := NewNode(nf.Name)
	if nf.Link != nil {
		l := *nf.Link
		n.link = &l
	}
	for _, bf := range nf.Behaviors {
		if _, err := n.AddBehavior(bf.Type, bf.Fields); err != nil {
			return nil, fmt.Errorf("%s: %w", n.Name, err)
		}
	}
	for _, cf := range nf.Children {
		c, err := cf.build()
		if err != nil {
			return nil, err
		}
		n.AddChild(c)
	}
	return n, nil
}

func toFile(n *Node) *nodeFile {
	nf := &nodeFile{Name: n.Name, Link: n.Link()}
	for _, b := range n.behaviors {
		bf := &behaviorFile{Type: b.Type}
		if len(b.fields) > 0 {
			bf.Fields = b.Fields()
		}
		nf.Behaviors = append(nf.Behaviors, bf)
	}
	for _, c := range n.children {
		nf.Children = append(nf.Children, toFile(c))
	}
	return nf
}

// EncodeTemplate serialises a template.
func EncodeTemplate(t *Template) ([]byte, error) {
	if t.Root == nil {
		return nil, fmt.Errorf("encode %s: template has no root", t.Path)
	}
	return encode(&assetFile{Version: FormatVersion, GUID: t.GUID, Root: toFile(t.Root)})
}

// EncodeDocument serialises a composite document.
func EncodeDocument(d *Document) ([]byte, error) {
	f := &documentOut{Version: FormatVersion, GUID: d.GUID, Roots: []*nodeFile{}}
	for _, r := range d.roots {
		f.Roots = append(f.Roots, toFile(r))
	}
	return encode(f)
}

func encode(f any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
