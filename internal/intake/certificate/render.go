package certificate

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"sync"

	"taf-intake/internal/models"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdownInstance goldmark.Markdown
	markdownOnce     sync.Once
)

func getMarkdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New(
			goldmark.WithExtensions(extension.Table),
		)
	})
	return markdownInstance
}

// Markdown builds the certificate body. Every value taken from the record
// is escaped, so raw HTML in a name renders as text.
func Markdown(v View) string {
	var b strings.Builder

	dept := v.Department
	if dept == "" {
		dept = "Departamento de Polícia"
	}

	fmt.Fprintf(&b, "# %s\n\n", escape(strings.ToUpper(dept)))
	b.WriteString("## FICHA DE TESTE DE APTIDÃO FÍSICA\n\n")

	b.WriteString("### DADOS DO CANDIDATO\n\n")
	if v.Photo != "" {
		fmt.Fprintf(&b, "![Foto do candidato](<%s>)\n\n", strings.NewReplacer("<", "%3C", ">", "%3E").Replace(v.Photo))
	}
	fmt.Fprintf(&b, "- **Nome:** %s\n", escape(v.CandidateName))
	fmt.Fprintf(&b, "- **Passaporte ID:** %s\n", escape(v.PassportID))
	fmt.Fprintf(&b, "- **Data de Recrutamento:** %s\n", v.Date.Format("02/01/2006"))
	fmt.Fprintf(&b, "- **Recrutador Responsável:** %s\n", escape(v.RecruiterName))
	if v.AssistantName != "" {
		fmt.Fprintf(&b, "- **Auxiliar de Recrutamento:** %s\n", escape(v.AssistantName))
	}
	b.WriteString("\n")

	b.WriteString("| Perguntas | Exercícios | Total |\n")
	b.WriteString("|:---:|:---:|:---:|\n")
	fmt.Fprintf(&b, "| %s | %s | %s |\n\n", v.Questions, v.Exercises, v.Total)

	fmt.Fprintf(&b, "### %s\n\n", v.Verdict())

	b.WriteString("### CRITÉRIOS DE AVALIAÇÃO\n\n")
	writeChecks(&b, v.Criteria)

	if len(v.PostRecruitment) > 0 {
		b.WriteString("### PÓS-RECRUTAMENTO\n\n")
		writeChecks(&b, v.PostRecruitment)
	}

	fmt.Fprintf(&b, "---\n\n%s - Documento Oficial de Recrutamento\n\n", escape(dept))
	fmt.Fprintf(&b, "Gerado em: %s\n", v.GeneratedAt.Format("02/01/2006 15:04:05"))

	return b.String()
}

func writeChecks(b *strings.Builder, checks models.LabeledChecks) {
	b.WriteString("| Item | Resultado |\n")
	b.WriteString("|:---|:---:|\n")
	for _, c := range checks {
		mark := "✗"
		if c.Value {
			mark = "✓"
		}
		fmt.Fprintf(b, "| %s | %s |\n", escape(c.Label), mark)
	}
	b.WriteString("\n")
}

// Render produces a standalone HTML document for v.
func Render(v View) ([]byte, error) {
	var body bytes.Buffer
	if err := getMarkdown().Convert([]byte(Markdown(v)), &body); err != nil {
		return nil, fmt.Errorf("failed to render certificate: %w", err)
	}

	var doc bytes.Buffer
	doc.WriteString("<!DOCTYPE html>\n<html lang=\"pt-BR\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&doc, "<title>Ficha TAF - %s</title>\n", html.EscapeString(v.CandidateName))
	doc.WriteString("</head>\n<body>\n")
	doc.Write(body.Bytes())
	doc.WriteString("</body>\n</html>\n")
	return doc.Bytes(), nil
}

const markdownSpecial = "\\`*_{}[]()#+-.!|<>&~"

func escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\r' {
			b.WriteByte(' ')
			continue
		}
		if strings.ContainsRune(markdownSpecial, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
