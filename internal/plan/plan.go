// Package plan loads declarative resource plans from YAML files.
//
// A plan lists the certificates and containers a host should converge to:
//
//	certificates:
//	  - domains: [example.com, www.example.com]
//	    email: admin@example.com
//	    webroot: /var/www/html
//	containers:
//	  - name: web
//	    image: nginx:latest
//	    ports: ["80:80"]
//
// Decoding is strict: unknown fields anywhere in the document are a
// validation error, not silently dropped.
package plan

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ksyq12/converge/internal/errors"
	"github.com/ksyq12/converge/internal/spec"
)

// Document is a parsed plan file, still in raw (pre-normalization) form.
type Document struct {
	Certificates []spec.CertificateDoc `yaml:"certificates"`
	Containers   []spec.ContainerDoc   `yaml:"containers"`
}

// Empty reports whether the plan declares no resources at all.
func (d *Document) Empty() bool {
	return len(d.Certificates) == 0 && len(d.Containers) == 0
}

// Load reads and parses a plan file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePlan, fmt.Sprintf("failed to read plan %s", path), err)
	}
	return Parse(data)
}

// Parse parses plan YAML with strict field checking.
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return &Document{}, nil
		}
		return nil, errors.Wrap(errors.ErrCodeValidation, "invalid plan", err)
	}
	return &doc, nil
}
