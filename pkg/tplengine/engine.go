package tplengine

import (
	"bytes"
	"fmt"
	"maps"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// TemplateEngine renders text/template strings with the sprig function set.
// Missing keys are errors.
type TemplateEngine struct {
	templates    map[string]*template.Template
	globalValues map[string]any
}

// NewEngine creates a new template engine
func NewEngine() *TemplateEngine {
	return &TemplateEngine{
		templates:    make(map[string]*template.Template),
		globalValues: make(map[string]any),
	}
}

func parse(name, templateStr string) (*template.Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Funcs(sprig.TxtFuncMap()).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return tmpl, nil
}

// AddTemplate adds a template to the engine
func (e *TemplateEngine) AddTemplate(name, templateStr string) error {
	tmpl, err := parse(name, templateStr)
	if err != nil {
		return err
	}
	e.templates[name] = tmpl
	return nil
}

// HasTemplate returns true if the string contains template markers
func HasTemplate(s string) bool {
	return strings.Contains(s, "{{")
}

// Render renders a template by name
func (e *TemplateEngine) Render(name string, context map[string]any) (string, error) {
	tmpl, ok := e.templates[name]
	if !ok {
		return "", fmt.Errorf("template not found: %s", name)
	}
	return e.renderTemplate(tmpl, context)
}

// RenderString renders a template string. Strings without markers are
// returned as they are.
func (e *TemplateEngine) RenderString(templateStr string, context map[string]any) (string, error) {
	if !HasTemplate(templateStr) {
		return templateStr, nil
	}
	tmpl, err := parse("inline", templateStr)
	if err != nil {
		return "", err
	}
	return e.renderTemplate(tmpl, context)
}

// RenderMap renders every value of values. Errors name the offending key.
func (e *TemplateEngine) RenderMap(values map[string]string, context map[string]any) (map[string]string, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(map[string]string, len(values))
	for _, k := range keys {
		rendered, err := e.RenderString(values[k], context)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", k, err)
		}
		out[k] = rendered
	}
	return out, nil
}

func (e *TemplateEngine) renderTemplate(tmpl *template.Template, context map[string]any) (string, error) {
	data := make(map[string]any, len(context)+len(e.globalValues))
	maps.Copy(data, context)
	maps.Copy(data, e.globalValues)

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template execution error: %w", err)
	}
	return buf.String(), nil
}

// AddGlobalValue adds a value visible to every render
func (e *TemplateEngine) AddGlobalValue(name string, value any) {
	e.globalValues[name] = value
}
