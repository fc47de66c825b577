// Package xmlcodec converts between path-keyed dss.Parameters and XML
// documents. A key such as "a:B/c:D" names the element c:D inside a:B, below
// the document root. Namespace prefixes are kept literally and are never
// resolved.
package xmlcodec

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/letsencrypt/certval/dss"
)

// Codec marshals requests and unmarshals responses according to a Schema. It
// is immutable and safe for concurrent use.
type Codec struct {
	schema    Schema
	rank      map[string]int
	repeated  map[string]bool
	fieldMaps map[string]bool
}

// New returns a Codec for schema.
func New(schema Schema) *Codec {
	c := &Codec{
		schema:    schema,
		rank:      make(map[string]int, len(schema.Order)),
		repeated:  make(map[string]bool, len(schema.Repeated)),
		fieldMaps: make(map[string]bool, len(schema.FieldMaps)),
	}
	for i, name := range schema.Order {
		c.rank[name] = i
	}
	for _, path := range schema.Repeated {
		c.repeated[path] = true
	}
	for _, path := range schema.FieldMaps {
		c.fieldMaps[path] = true
	}
	return c
}

type node struct {
	name     string
	text     string
	leaf     bool
	children map[string]*node
}

func (n *node) child(name string) *node {
	if n.children == nil {
		n.children = make(map[string]*node)
	}
	c, ok := n.children[name]
	if !ok {
		c = &node{name: name}
		n.children[name] = c
	}
	return c
}

// MarshalRequest renders p as a document below the schema root. Every value
// must be a string.
func (c *Codec) MarshalRequest(p dss.Parameters) ([]byte, error) {
	root := &node{name: c.schema.Root}
	for key, val := range p {
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("parameter %q has unsupported type %T", key, val)
		}
		n := root
		for _, name := range strings.Split(key, "/") {
			if name == "" {
				return nil, fmt.Errorf("parameter %q has an empty path element", key)
			}
			if n.leaf {
				return nil, fmt.Errorf("parameter %q is nested inside a value", key)
			}
			n = n.child(name)
		}
		if len(n.children) > 0 {
			return nil, fmt.Errorf("parameter %q has both a value and children", key)
		}
		n.leaf = true
		n.text = s
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	err := c.encode(enc, root, c.rootAttrs())
	if err != nil {
		return nil, err
	}
	err = enc.Flush()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Codec) rootAttrs() []xml.Attr {
	var attrs []xml.Attr
	for prefix, uri := range c.schema.Namespaces {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "xmlns:" + prefix}, Value: uri})
	}
	for name, val := range c.schema.RootAttrs {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: name}, Value: val})
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Name.Local < attrs[j].Name.Local })
	return attrs
}

func (c *Codec) encode(enc *xml.Encoder, n *node, attrs []xml.Attr) error {
	start := xml.StartElement{Name: xml.Name{Local: n.name}, Attr: attrs}
	err := enc.EncodeToken(start)
	if err != nil {
		return err
	}
	if n.leaf && n.text != "" {
		err = enc.EncodeToken(xml.CharData(n.text))
		if err != nil {
			return err
		}
	}
	for _, child := range c.sorted(n.children) {
		err = c.encode(enc, child, nil)
		if err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

func (c *Codec) sorted(children map[string]*node) []*node {
	out := make([]*node, 0, len(children))
	for _, child := range children {
		out = append(out, child)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, iok := c.rank[out[i].name]
		rj, jok := c.rank[out[j].name]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		}
		return out[i].name < out[j].name
	})
	return out
}

// UnmarshalResponse reads a document into parameters keyed by path relative
// to its root element. Leaf elements become strings; Repeated and FieldMaps
// paths are decoded as described on Schema. Anything after the root element
// is ignored.
func (c *Codec) UnmarshalResponse(doc []byte) (dss.Parameters, error) {
	d := xml.NewDecoder(bytes.NewReader(doc))
	for {
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			return nil, errors.New("document has no root element")
		}
		if err != nil {
			return nil, fmt.Errorf("reading document: %w", err)
		}
		if _, ok := tok.(xml.StartElement); ok {
			break
		}
	}
	p := dss.Parameters{}
	_, _, err := c.walk(d, p, "", false)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// walk consumes the content of the element whose start tag was just read, up
// to and including its end tag. It returns the element's text and whether it
// had no child elements. Inside a repeated element (nested) no further
// Repeated or FieldMaps paths are recognized.
func (c *Codec) walk(d *xml.Decoder, out dss.Parameters, path string, nested bool) (string, bool, error) {
	var text strings.Builder
	leaf := true
	for {
		tok, err := d.RawToken()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return "", false, fmt.Errorf("reading document: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			leaf = false
			childPath := qname(t.Name)
			if path != "" {
				childPath = path + "/" + childPath
			}
			switch {
			case !nested && c.repeated[childPath]:
				rec := dss.Parameters{}
				_, _, err = c.walk(d, rec, "", true)
				if err != nil {
					return "", false, err
				}
				list, _ := out[childPath].([]dss.Parameters)
				out[childPath] = append(list, rec)
			case !nested && c.fieldMaps[childPath]:
				fields, err := c.readFieldMap(d)
				if err != nil {
					return "", false, err
				}
				out[childPath] = fields
			default:
				s, childLeaf, err := c.walk(d, out, childPath, nested)
				if err != nil {
					return "", false, err
				}
				if childLeaf {
					out[childPath] = s
				}
			}
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			return text.String(), leaf, nil
		}
	}
}

// readFieldMap consumes a field block. Each child element is one field.
func (c *Codec) readFieldMap(d *xml.Decoder) (map[string]string, error) {
	fields := map[string]string{}
	for {
		tok, err := d.RawToken()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("reading document: %w", err)
		}
		switch tok.(type) {
		case xml.StartElement:
			field := dss.Parameters{}
			_, _, err = c.walk(d, field, "", true)
			if err != nil {
				return nil, err
			}
			id, _ := field[c.schema.FieldIdentity].(string)
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			val, _ := field[c.schema.FieldValue].(string)
			fields[id] = strings.TrimSpace(val)
		case xml.EndElement:
			return fields, nil
		}
	}
}

func qname(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
