package shaders

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed *.frag *.vert
var templateDir embed.FS

const (
	VertexShaderName   = "quad.vert"
	FragmentShaderName = "quad.frag"
)

type Shaderer struct {
	templates *template.Template
}

func NewShaderer() (*Shaderer, error) {
	s := &Shaderer{}

	var err error

	s.templates, err = template.ParseFS(templateDir, "*.frag", "*.vert")

	return s, err
}

// ShaderData contains stuff that gets passed to the shader templates
type ShaderData struct {
	GLSLVersion      string
	PositionAttrib   string
	CoordinateAttrib string
	TextureUniform   string
}

func DefaultShaderData() *ShaderData {
	return &ShaderData{
		GLSLVersion:      "410 core",
		PositionAttrib:   "position",
		CoordinateAttrib: "coordinate",
		TextureUniform:   "tex",
	}
}

func (s *Shaderer) GetShaderSource(name string, data *ShaderData) (string, error) {
	var b bytes.Buffer
	err := s.templates.ExecuteTemplate(&b, name, data)
	if err != nil {
		return "", fmt.Errorf("error while rendering template: %w", err)
	}

	return b.String(), nil
}

func (s *Shaderer) TemplateNames() []string {
	var names []string
	for _, t := range s.templates.Templates() {
		names = append(names, t.Name())
	}
	return names
}
