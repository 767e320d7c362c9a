package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/paulobunga/parkman/diff"
	"github.com/paulobunga/parkman/schema"
	"gopkg.in/yaml.v3"
)

type yamlFile struct {
	Operations []yamlOperation `yaml:"operations"`
}

type yamlOperation struct {
	Type        string           `yaml:"type"`
	Table       string           `yaml:"table,omitempty"`
	Alterations []yamlAlteration `yaml:"alterations,omitempty"`
	From        string           `yaml:"from,omitempty"`
	To          string           `yaml:"to,omitempty"`
	ForeignKey  *yamlForeignKey  `yaml:"foreign_key,omitempty"`
	Name        string           `yaml:"name,omitempty"`
}

type yamlAlteration struct {
	Type   string      `yaml:"type"`
	Column *yamlColumn `yaml:"column,omitempty"`
	Name   string      `yaml:"name,omitempty"`
	From   string      `yaml:"from,omitempty"`
	To     string      `yaml:"to,omitempty"`
}

type yamlColumn struct {
	Name      string     `yaml:"name"`
	Type      string     `yaml:"type"`
	List      bool       `yaml:"list,omitempty"`
	Nullable  bool       `yaml:"nullable,omitempty"`
	Unique    bool       `yaml:"unique,omitempty"`
	Primary   bool       `yaml:"primary,omitempty"`
	UpdatedAt bool       `yaml:"updated_at,omitempty"`
	Default   *yaml.Node `yaml:"default,omitempty"`
	Values    []string   `yaml:"values,omitempty"`
}

type yamlForeignKey struct {
	Column     string `yaml:"column"`
	References string `yaml:"references"`
	On         string `yaml:"on"`
	OnDelete   string `yaml:"on_delete,omitempty"`
	OnUpdate   string `yaml:"on_update,omitempty"`
}

// LoadOperations reads an operations file:
//
//	operations:
//	  - type: alter_table
//	    table: users
//	    alterations:
//	      - type: add_column
//	        column: {name: phone, type: String, nullable: true}
//	      - type: drop_column
//	        name: legacy
//	  - type: rename_table
//	    from: posts
//	    to: articles
//
// Types are kept as written, so an unknown type reaches the migration
// renderer and is skipped there.
func LoadOperations(filename string) ([]diff.Operation, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading operations file: %w", err)
	}
	return ParseOperations(data)
}

// ParseOperations decodes operations from YAML.
func ParseOperations(data []byte) ([]diff.Operation, error) {
	var yf yamlFile
	if err := yaml.Unmarshal(data, &yf); err != nil {
		return nil, fmt.Errorf("unmarshalling YAML: %w", err)
	}

	var ops []diff.Operation
	for _, o := range yf.Operations {
		op := diff.Operation{
			Type:  diff.OperationType(o.Type),
			Table: o.Table,
			From:  o.From,
			To:    o.To,
			Name:  o.Name,
		}
		for _, a := range o.Alterations {
			alt := diff.Alteration{
				Type: diff.AlterationType(a.Type),
				Name: a.Name,
				From: a.From,
				To:   a.To,
			}
			if a.Column != nil {
				alt.Column = &diff.Column{
					Name:      a.Column.Name,
					Type:      a.Column.Type,
					List:      a.Column.List,
					Nullable:  a.Column.Nullable,
					Unique:    a.Column.Unique,
					Primary:   a.Column.Primary,
					UpdatedAt: a.Column.UpdatedAt,
					Default:   defaultText(a.Column.Default),
					Values:    a.Column.Values,
				}
			}
			op.Alterations = append(op.Alterations, alt)
		}
		if fk := o.ForeignKey; fk != nil {
			op.ForeignKey = &diff.ForeignKey{
				Column:     fk.Column,
				References: fk.References,
				On:         fk.On,
				OnDelete:   diff.ReferentialAction(fk.OnDelete),
				OnUpdate:   diff.ReferentialAction(fk.OnUpdate),
			}
		}
		ops = append(ops, op)
	}

	return ops, nil
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// defaultText turns a YAML default into schema default syntax: numbers,
// booleans and calls such as now() stay bare, other strings are quoted.
func defaultText(n *yaml.Node) *string {
	if n == nil || n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		return nil
	}
	v := n.Value
	if n.Tag == "!!str" && !strings.HasSuffix(v, ")") {
		v = `"` + quoteEscaper.Replace(v) + `"`
	}
	return &v
}

// MarshalOperations renders ops in the format LoadOperations reads.
func MarshalOperations(ops []diff.Operation) ([]byte, error) {
	yf := yamlFile{Operations: make([]yamlOperation, 0, len(ops))}
	for _, op := range ops {
		o := yamlOperation{
			Type:  string(op.Type),
			Table: op.Table,
			From:  op.From,
			To:    op.To,
			Name:  op.Name,
		}
		for _, a := range op.Alterations {
			alt := yamlAlteration{
				Type: string(a.Type),
				Name: a.Name,
				From: a.From,
				To:   a.To,
			}
			if c := a.Column; c != nil {
				alt.Column = &yamlColumn{
					Name:      c.Name,
					Type:      c.Type,
					List:      c.List,
					Nullable:  c.Nullable,
					Unique:    c.Unique,
					Primary:   c.Primary,
					UpdatedAt: c.UpdatedAt,
					Values:    c.Values,
				}
				if c.Default != nil {
					alt.Column.Default = defaultNode(*c.Default)
				}
			}
			o.Alterations = append(o.Alterations, alt)
		}
		if fk := op.ForeignKey; fk != nil {
			o.ForeignKey = &yamlForeignKey{
				Column:     fk.Column,
				References: fk.References,
				On:         fk.On,
				OnDelete:   fk.OnDelete,
				OnUpdate:   fk.OnUpdate,
			}
		}
		yf.Operations = append(yf.Operations, o)
	}
	return yaml.Marshal(yf)
}

// defaultNode is the inverse of defaultText.
func defaultNode(v string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Value: v}
	if schema.IsQuoted(v) {
		n.Tag = "!!str"
		n.Value = schema.Unquote(v)
		n.Style = yaml.DoubleQuotedStyle
	}
	return n
}
