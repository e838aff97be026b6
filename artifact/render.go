package artifact

import (
	"fmt"
	"go/format"
	"strconv"
	"strings"
	"text/template"

	"github.com/sghaida/speedioc/internal/identity"
)

// Render returns a gofmt'd Go source rendition of p in package pkg. With
// comments set, each entry is preceded by its diagnostic comment block.
func Render(p *Plan, pkg string, comments bool) ([]byte, error) {
	body, err := Encode(p)
	if err != nil {
		return nil, err
	}
	_, planBody, _ := splitHeader(body)

	var sb strings.Builder
	err = renditionTpl.Execute(&sb, renditionData{
		Plan:     p,
		Package:  pkg,
		Checksum: SHA256Hex(planBody),
		Comments: comments,
	})
	if err != nil {
		return nil, err
	}
	src, err := format.Source([]byte(sb.String()))
	if err != nil {
		return []byte(sb.String()), fmt.Errorf("artifact: gofmt rendition: %w", err)
	}
	return src, nil
}

// WriteRendition renders p and writes it next to the plan under dir.
func WriteRendition(dir string, p *Plan, pkg string, comments bool) (string, error) {
	src, err := Render(p, pkg, comments)
	if err != nil {
		return "", err
	}
	path := RenditionPath(dir, p.Identity)
	if err := writeFileAtomic(path, src, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type renditionData struct {
	Plan     *Plan
	Package  string
	Checksum string
	Comments bool
}

var renditionTpl = template.Must(
	template.New("rendition").
		Funcs(template.FuncMap{
			"quote": strconv.Quote,
			"operation": func(e Entry) string {
				return identity.Operation(identity.GetInstance, e.Identifier)
			},
			"commentLines": func(s string) []string {
				return strings.Split(strings.TrimRight(s, "\n"), "\n")
			},
		}).
		Parse(`// Code generated by speedioc; DO NOT EDIT.
// Identity: {{.Plan.Identity}}
// Fingerprint: {{.Plan.Fingerprint}}
// Plan-SHA256: {{.Checksum}}

package {{.Package}}

// Entry describes one registration of the container.
type Entry struct {
	Index     int
	Operation string
	Key       string
	Lifetime  string
	Status    string
}

// Dispatch lists every registration in ordinal order.
var Dispatch = []Entry{
{{- range .Plan.Entries }}
{{- if and $.Comments .Comment }}
{{- range commentLines .Comment }}
	// {{ . }}
{{- end }}
{{- end }}
	{Index: {{ .Index }}, Operation: {{ quote (operation .) }}, Key: {{ quote .Key }}, Lifetime: {{ quote .Lifetime.String }}, Status: {{ quote (printf "%s" .Status) }}},
{{- end }}
}

// Dispatch indexes of the active registrations.
const (
{{- range .Plan.Active }}
	{{ operation . }} = {{ .Index }}
{{- end }}
)
`),
)
