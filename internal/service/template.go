package service

import (
	"strings"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/domain"
)

// ResolveTemplate substitutes the recognized {{placeholder}} tokens with lead
// field values. Both Portuguese and English token names are accepted because
// templates written by operators use either. Unknown placeholders are left
// verbatim; the function is pure and has no failure mode.
func ResolveTemplate(template string, lead *domain.Lead) string {
	if template == "" || lead == nil {
		return template
	}

	replacer := strings.NewReplacer(
		"{{nome}}", lead.Name,
		"{{name}}", lead.Name,
		"{{primeiro_nome}}", lead.FirstName(),
		"{{first_name}}", lead.FirstName(),
		"{{whatsapp}}", lead.WhatsApp,
		"{{phone}}", lead.WhatsApp,
		"{{origem}}", lead.Source,
		"{{source}}", lead.Source,
	)

	return replacer.Replace(template)
}
