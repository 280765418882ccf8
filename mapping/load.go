// Copyright 2026 The Cayley Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mapping

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/voc"
	"github.com/cayleygraph/quad/voc/rdf"
	"github.com/cayleygraph/quad/voc/rdfs"
	"github.com/cayleygraph/quad/voc/xsd"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/cayleygraph/sparqlstorage/errs"
)

// Config is the declarative mapping configuration.
//
//	namespaces:
//	  dc: http://purl.org/dc/terms/
//	bundles:
//	  - entity_type: node
//	    bundle: article
//	    rdf_type: http://example.com/Article # optional
//	    base_uri: http://example.com/article/
//	    fields:
//	      title:
//	        type: string
//	        properties:
//	          value: {predicate: "dc:title", format: "xsd:string"}
type Config struct {
	Namespaces map[string]string   `yaml:"namespaces"`
	FieldTypes map[string][]string `yaml:"field_types" validate:"dive,min=1"`
	Bundles    []BundleConfig      `yaml:"bundles" validate:"required,min=1,dive"`
}

// BundleConfig is the configuration of one bundle.
type BundleConfig struct {
	EntityType string                 `yaml:"entity_type" validate:"required"`
	Bundle     string                 `yaml:"bundle" validate:"required"`
	RDFType    string                 `yaml:"rdf_type"`
	BaseURI    string                 `yaml:"base_uri"`
	Fields     map[string]FieldConfig `yaml:"fields" validate:"dive"`
}

// FieldConfig is the configuration of one field.
type FieldConfig struct {
	Type       string                    `yaml:"type" validate:"required"`
	Multiple   bool                      `yaml:"multiple"`
	Properties map[string]PropertyConfig `yaml:"properties" validate:"required,min=1,dive"`
}

// PropertyConfig maps a field property to a predicate.
type PropertyConfig struct {
	Predicate string `yaml:"predicate" validate:"required"`
	Format    string `yaml:"format" validate:"required"`
}

var validate = validator.New()

// Load reads a YAML configuration and builds a Table.
func Load(r io.Reader) (*Table, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, &errs.Error{Kind: errs.Config, Op: "load mappings", Err: err}
	}
	return New(&c)
}

// LoadFile reads a YAML configuration file and builds a Table.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &errs.Error{Kind: errs.Config, Op: "load mappings", Err: err}
	}
	defer f.Close()
	return Load(f)
}

func configErr(format string, args ...interface{}) error {
	return errs.New(errs.Config, "load mappings", format, args...)
}

func defaultNamespaces() *voc.Namespaces {
	ns := &voc.Namespaces{}
	ns.Register(voc.Namespace{Prefix: rdf.Prefix, Full: rdf.NS})
	ns.Register(voc.Namespace{Prefix: rdfs.Prefix, Full: rdfs.NS})
	ns.Register(voc.Namespace{Prefix: xsd.Prefix, Full: xsd.NS})
	return ns
}

// New builds a Table from a configuration.
func New(c *Config) (*Table, error) {
	if err := validate.Struct(c); err != nil {
		return nil, &errs.Error{Kind: errs.Config, Op: "load mappings", Err: err}
	}
	t := &Table{
		bundles: make(map[bundleKey]*bundleInfo),
		byType:  make(map[string]map[quad.IRI]*bundleInfo),
		untyped: make(map[string][]*bundleInfo),
		types:   DefaultFieldTypes(),
		ns:      defaultNamespaces(),
	}
	for name, props := range c.FieldTypes {
		t.types[name] = props
	}
	prefixes := make([]string, 0, len(c.Namespaces))
	for p := range c.Namespaces {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	for _, p := range prefixes {
		full := c.Namespaces[p]
		if !isAbsolute(full) {
			return nil, configErr("namespace %q: not an absolute IRI: %q", p, full)
		}
		t.ns.Register(voc.Namespace{Prefix: strings.TrimSuffix(p, ":") + ":", Full: full})
	}
	for _, bc := range c.Bundles {
		if err := t.addBundle(bc); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) addBundle(bc BundleConfig) error {
	key := bundleKey{typ: bc.EntityType, bundle: bc.Bundle}
	if _, ok := t.bundles[key]; ok {
		return configErr("bundle %s:%s is defined twice", bc.EntityType, bc.Bundle)
	}
	var rdfType quad.IRI
	if bc.RDFType != "" {
		var err error
		rdfType, err = t.expand(bc.RDFType)
		if err != nil {
			return configErr("bundle %s:%s: rdf_type: %v", bc.EntityType, bc.Bundle, err)
		}
	}
	if bc.BaseURI != "" && !isAbsolute(bc.BaseURI) {
		return configErr("bundle %s:%s: base_uri is not an absolute IRI: %q", bc.EntityType, bc.Bundle, bc.BaseURI)
	}
	if other, ok := t.byType[bc.EntityType][rdfType]; ok && rdfType != "" {
		return configErr("bundles %s and %s of %s share rdf_type %s", other.Bundle.Bundle, bc.Bundle, bc.EntityType, rdfType)
	}
	b := &bundleInfo{
		Bundle: Bundle{
			EntityType: bc.EntityType,
			Bundle:     bc.Bundle,
			RDFType:    rdfType,
			BaseURI:    bc.BaseURI,
		},
		fields: make(map[string]*fieldInfo, len(bc.Fields)),
		byPred: make(map[quad.IRI]Mapping),
	}
	names := make([]string, 0, len(bc.Fields))
	for name := range bc.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fc := bc.Fields[name]
		if _, ok := t.types[fc.Type]; !ok {
			return configErr("field %s of %s:%s: unknown field type %q", name, bc.EntityType, bc.Bundle, fc.Type)
		}
		fi := &fieldInfo{typ: fc.Type, multiple: fc.Multiple, props: make(map[string]Mapping, len(fc.Properties))}
		for prop, pc := range fc.Properties {
			if !t.types.Has(fc.Type, prop) {
				return &errs.Error{
					Kind: errs.NonExistingProperty, Op: "load mappings",
					Entity: bc.EntityType + ":" + bc.Bundle, Field: name, Property: prop,
				}
			}
			pred, err := t.expand(pc.Predicate)
			if err != nil {
				return configErr("field %s.%s of %s:%s: %v", name, prop, bc.EntityType, bc.Bundle, err)
			}
			if pred == RDFType || pred == OrderPredicate {
				return configErr("field %s.%s of %s:%s: predicate %s is reserved", name, prop, bc.EntityType, bc.Bundle, pred)
			}
			format, err := ParseFormat(pc.Format)
			if err != nil {
				return configErr("field %s.%s of %s:%s: %v", name, prop, bc.EntityType, bc.Bundle, err)
			}
			m := Mapping{
				Key: Key{
					EntityType: bc.EntityType, Bundle: bc.Bundle,
					Field: name, Property: prop,
				},
				FieldType: fc.Type,
				Predicate: pred,
				Format:    format,
				Multiple:  fc.Multiple,
			}
			if prev, ok := b.byPred[pred]; ok {
				return configErr("%s:%s: predicate %s is used by both %s.%s and %s.%s",
					bc.EntityType, bc.Bundle, pred, prev.Field, prev.Property, name, prop)
			}
			b.byPred[pred] = m
			fi.props[prop] = m
		}
		b.fields[name] = fi
	}
	t.bundles[key] = b
	if rdfType == "" {
		t.untyped[bc.EntityType] = append(t.untyped[bc.EntityType], b)
		return nil
	}
	if t.byType[bc.EntityType] == nil {
		t.byType[bc.EntityType] = make(map[quad.IRI]*bundleInfo)
	}
	t.byType[bc.EntityType][rdfType] = b
	return nil
}

// expand resolves a prefixed name to a full IRI and checks that it is absolute.
func (t *Table) expand(s string) (quad.IRI, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "<"), ">")
	full := t.ns.FullIRI(s)
	if !isAbsolute(full) {
		return "", fmt.Errorf("not an absolute IRI: %q", s)
	}
	return quad.IRI(full), nil
}

// isAbsolute accepts IRIs with a scheme and either an authority or the urn scheme.
// Unexpanded prefixed names like "dc:title" are rejected.
func isAbsolute(s string) bool {
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		return false
	}
	return u.Host != "" || u.Scheme == "urn"
}
