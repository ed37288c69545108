package codegen

const fileTemplate = `// Code generated by afmt. DO NOT EDIT.
{{- if .Fingerprint}}
// afmt:fingerprint {{.Fingerprint}}
{{- end}}

//go:build !{{.Tag}}

package {{.Package}}
{{if eq (len .Imports) 1}}{{with index .Imports 0}}
import {{if .Explicit}}{{.Name}} {{end}}"{{.Path}}"
{{end}}{{else if .Imports}}
import (
{{- range .Imports}}
	{{if .Explicit}}{{.Name}} {{end}}"{{.Path}}"
{{- end}}
)
{{end}}
{{- range .Funcs}}
{{range .Doc}}
{{.}}
{{- end}}
{{.Signature}} {
{{- if .Assert}}
	const _ = uint(len({{.Assert}}{}) - {{.Bound}})
{{- end}}
{{- if .DestBind}}
	{{.Out}} := {{.DestBind}}
{{- end}}
{{- range .Bindings}}
	{{.Name}} := {{.Source}}
{{- end}}
{{- if .Producer}}
	var {{.Out}} {{.Bstr}}.Array[[{{.Bound}}]byte]
{{- else}}
	{{.Target}}.Reset()
{{- end}}
{{- range .Appends}}
	{{.}}
{{- end}}
{{- if .Producer}}
	return {{.Out}}
{{- end}}
}
{{end}}`
