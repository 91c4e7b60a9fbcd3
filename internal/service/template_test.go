package service

import (
	"testing"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/domain"
)

func TestResolveTemplate(t *testing.T) {
	lead := &domain.Lead{
		Name:     "Ana Silva",
		WhatsApp: "5541998712446",
		Source:   "instagram",
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{
			name:     "full name token",
			template: "Ola {{nome}}, tudo bem?",
			want:     "Ola Ana Silva, tudo bem?",
		},
		{
			name:     "first name token",
			template: "Oi {{primeiro_nome}}!",
			want:     "Oi Ana!",
		},
		{
			name:     "english aliases",
			template: "{{name}} / {{first_name}} / {{phone}} / {{source}}",
			want:     "Ana Silva / Ana / 5541998712446 / instagram",
		},
		{
			name:     "portuguese whatsapp and origem",
			template: "{{whatsapp}} veio de {{origem}}",
			want:     "5541998712446 veio de instagram",
		},
		{
			name:     "unknown placeholder left verbatim",
			template: "Ola {{apelido}}",
			want:     "Ola {{apelido}}",
		},
		{
			name:     "empty template",
			template: "",
			want:     "",
		},
		{
			name:     "repeated tokens",
			template: "{{primeiro_nome}}, {{primeiro_nome}}!",
			want:     "Ana, Ana!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveTemplate(tt.template, lead); got != tt.want {
				t.Errorf("ResolveTemplate(%q) = %q, want %q", tt.template, got, tt.want)
			}
		})
	}
}

func TestResolveTemplateNilLead(t *testing.T) {
	if got := ResolveTemplate("Ola {{nome}}", nil); got != "Ola {{nome}}" {
		t.Errorf("expected template unchanged for nil lead, got %q", got)
	}
}

func TestResolveTemplateSingleWordName(t *testing.T) {
	lead := &domain.Lead{Name: "Fernanda"}
	if got := ResolveTemplate("{{primeiro_nome}}", lead); got != "Fernanda" {
		t.Errorf("expected Fernanda, got %q", got)
	}
}
