package model

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConceptIdentifier is the only multi-valued mapping concept: the candidate join columns.
const ConceptIdentifier = "identifier"

// Category selects one of the two source spreadsheets.
type Category string

const (
	CategoryBenef Category = "benef_mapping"
	CategoryFicha Category = "ficha_mapping"
)

// Categories lists both mapping categories in display order.
var Categories = []Category{CategoryBenef, CategoryFicha}

// Label returns the human name of the spreadsheet behind the category.
func (c Category) Label() string {
	switch c {
	case CategoryBenef:
		return "Beneficiários"
	case CategoryFicha:
		return "Ficha financeira"
	default:
		return string(c)
	}
}

// Known concepts per category, in the order the backend defines them.
var (
	BenefConcepts = []string{ConceptIdentifier, "data_inclusao", "data_inativacao", "nascimento", "sexo"}
	FichaConcepts = []string{
		ConceptIdentifier, "atendimento", "custos", "qtde_usada", "chv_internamento",
		"agrupamento_assistencial", "codigo_servico", "descricao_servico", "idade",
	}
)

// ValueKind tags the shape of a MappingValue.
type ValueKind int

const (
	KindScalar ValueKind = iota
	KindIdentifier
)

// MappingValue is either an ordered set of identifier columns or a single column name.
type MappingValue struct {
	Scalar  string
	Columns []string
	Kind    ValueKind
}

// Scalar builds a single-column value.
func Scalar(column string) MappingValue {
	return MappingValue{Kind: KindScalar, Scalar: column}
}

// Identifier builds an identifier value. Duplicates and empty names are dropped.
func Identifier(columns ...string) MappingValue {
	return MappingValue{Kind: KindIdentifier, Columns: dedupe(columns)}
}

// IsEmpty reports whether the value selects no column.
func (v MappingValue) IsEmpty() bool {
	if v.Kind == KindIdentifier {
		return len(v.Columns) == 0
	}
	return v.Scalar == ""
}

// Values returns the selected columns regardless of kind.
func (v MappingValue) Values() []string {
	if v.Kind == KindIdentifier {
		return slices.Clone(v.Columns)
	}
	if v.Scalar == "" {
		return nil
	}
	return []string{v.Scalar}
}

func (v MappingValue) String() string {
	if v.Kind == KindIdentifier {
		return strings.Join(v.Columns, ", ")
	}
	return v.Scalar
}

// MarshalJSON encodes identifiers as arrays and scalars as strings.
func (v MappingValue) MarshalJSON() ([]byte, error) {
	if v.Kind == KindIdentifier {
		cols := v.Columns
		if cols == nil {
			cols = []string{}
		}
		return json.Marshal(cols)
	}
	return json.Marshal(v.Scalar)
}

// UnmarshalJSON accepts an array (identifier), a string (scalar) or null.
func (v *MappingValue) UnmarshalJSON(data []byte) error {
	var cols []string
	if err := json.Unmarshal(data, &cols); err == nil && cols != nil {
		*v = Identifier(cols...)
		return nil
	}
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("mapping value must be a string or a list of strings: %w", err)
	}
	if s == nil {
		*v = Scalar("")
		return nil
	}
	*v = Scalar(*s)
	return nil
}

// MarshalYAML mirrors MarshalJSON.
func (v MappingValue) MarshalYAML() (any, error) {
	if v.Kind == KindIdentifier {
		if v.Columns == nil {
			return []string{}, nil
		}
		return v.Columns, nil
	}
	return v.Scalar, nil
}

// UnmarshalYAML mirrors UnmarshalJSON.
func (v *MappingValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var cols []string
		if err := node.Decode(&cols); err != nil {
			return err
		}
		*v = Identifier(cols...)
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*v = Scalar(s)
	default:
		return fmt.Errorf("line %d: mapping value must be a string or a list of strings", node.Line)
	}
	return nil
}

// Mapping maps a concept to the column(s) chosen for it.
type Mapping map[string]MappingValue

// Set stores a value, coercing it to the shape its concept requires.
func (m Mapping) Set(concept string, v MappingValue) {
	if concept == ConceptIdentifier {
		m[concept] = Identifier(v.Values()...)
		return
	}
	if v.Kind == KindIdentifier {
		v = Scalar(first(v.Columns))
	}
	m[concept] = v
}

// Identifiers returns the identifier candidates, in order.
func (m Mapping) Identifiers() []string {
	return m[ConceptIdentifier].Values()
}

// Clone returns a deep copy.
func (m Mapping) Clone() Mapping {
	if m == nil {
		return nil
	}
	out := make(Mapping, len(m))
	for k, v := range m {
		v.Columns = slices.Clone(v.Columns)
		out[k] = v
	}
	return out
}

// WithJoinKey returns a copy whose identifier list starts with chosen.
func (m Mapping) WithJoinKey(chosen string) Mapping {
	out := m.Clone()
	if out == nil {
		out = Mapping{}
	}
	out[ConceptIdentifier] = Identifier(PrioritizeIdentifier(m.Identifiers(), chosen)...)
	return out
}

// Concepts returns the mapped concepts: known ones in canonical order, then the rest sorted.
func (m Mapping) Concepts(known []string) []string {
	out := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, c := range known {
		if _, ok := m[c]; ok {
			out = append(out, c)
			seen[c] = true
		}
	}
	var extra []string
	for c := range m {
		if !seen[c] {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// PrioritizeIdentifier moves chosen to the front of ids, keeping the remaining
// candidates in their original order without duplicates.
func PrioritizeIdentifier(ids []string, chosen string) []string {
	ordered := make([]string, 0, len(ids)+1)
	if chosen != "" {
		ordered = append(ordered, chosen)
	}
	ordered = append(ordered, ids...)
	return dedupe(ordered)
}

// FinalMapping is the user-edited mapping for both spreadsheets.
type FinalMapping struct {
	Benef Mapping `json:"benef_mapping" yaml:"benef_mapping"`
	Ficha Mapping `json:"ficha_mapping" yaml:"ficha_mapping"`
}

// Get returns the mapping of one category.
func (f FinalMapping) Get(c Category) Mapping {
	if c == CategoryFicha {
		return f.Ficha
	}
	return f.Benef
}

// Clone returns a deep copy.
func (f FinalMapping) Clone() FinalMapping {
	return FinalMapping{Benef: f.Benef.Clone(), Ficha: f.Ficha.Clone()}
}

// WithJoinKeys applies join-key reordering to both categories.
func (f FinalMapping) WithJoinKeys(benefID, fichaID string) FinalMapping {
	return FinalMapping{
		Benef: f.Benef.WithJoinKey(benefID),
		Ficha: f.Ficha.WithJoinKey(fichaID),
	}
}

// Candidates are the ranked columns the backend suggests for a concept.
type Candidates []string

// Top returns the best candidate, or "" when there is none.
func (c Candidates) Top() string {
	return first(c)
}

// ConceptSuggestions maps concepts to ranked candidates.
type ConceptSuggestions map[string]Candidates

// UnmarshalJSON normalises the loosely-typed backend payload: each concept may be
// a list, a bare string or null. A bare string is not a valid identifier list and
// yields no identifier candidates.
func (s *ConceptSuggestions) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("suggestions must be an object: %w", err)
	}
	out := make(ConceptSuggestions, len(raw))
	for concept, msg := range raw {
		out[concept] = decodeCandidates(concept, msg)
	}
	*s = out
	return nil
}

func decodeCandidates(concept string, msg json.RawMessage) Candidates {
	var list []any
	if err := json.Unmarshal(msg, &list); err == nil {
		out := make(Candidates, 0, len(list))
		for _, item := range list {
			if item == nil {
				continue
			}
			out = append(out, FormatValue(item))
		}
		return out
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil && concept != ConceptIdentifier && s != "" {
		return Candidates{s}
	}
	return Candidates{}
}

// SourceSuggestions holds the columns of one spreadsheet and the backend's suggestions for it.
type SourceSuggestions struct {
	Suggestions ConceptSuggestions `json:"suggestions"`
	Columns     []string           `json:"columns"`
}

// MappingSuggestions is the response of the suggestions endpoint.
type MappingSuggestions struct {
	Beneficiarios SourceSuggestions `json:"beneficiarios"`
	Ficha         SourceSuggestions `json:"ficha"`
}

// Get returns the suggestions of one category.
func (m MappingSuggestions) Get(c Category) SourceSuggestions {
	if c == CategoryFicha {
		return m.Ficha
	}
	return m.Beneficiarios
}

// SeedMapping turns suggestions into an editable mapping: identifier keeps every
// candidate, every other concept takes its top candidate.
func SeedMapping(s ConceptSuggestions) Mapping {
	out := make(Mapping, len(s))
	for concept, cands := range s {
		if concept == ConceptIdentifier {
			out[concept] = Identifier(cands...)
			continue
		}
		out[concept] = Scalar(cands.Top())
	}
	return out
}

// Seed builds the initial FinalMapping for both spreadsheets.
func (m MappingSuggestions) Seed() FinalMapping {
	return FinalMapping{
		Benef: SeedMapping(m.Beneficiarios.Suggestions),
		Ficha: SeedMapping(m.Ficha.Suggestions),
	}
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
