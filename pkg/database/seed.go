package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/logger"
)

// SeedDefaults installs the standard follow-up templates and the default
// lead_created drip campaign. Idempotent: an already-seeded database is left
// alone.
func SeedDefaults(db *sqlx.DB) error {
	templates := []struct {
		kind    string
		content string
	}{
		{"dia_3", "Ola {{nome}}, voce tem alguma duvida sobre os brinquedos, ou tem interesse em fazer a reserva?"},
		{"dia_7", "Ola {{nome}}, como vai? Voce ja fez a locacao dos brinquedos, ou tem interesse em fazer a locacao?"},
		{"mes_10", "Ola {{nome}}, sou o Fernando da Diversao Brinquedos, como vai?\nHa um tempo atras voce fez a cotacao de brinquedos com nossa empresa.\nGostaria de saber se tem interesse em receber o catalogo atualizado para uma nova locacao?"},
	}

	for _, tpl := range templates {
		_, err := db.Exec(
			"INSERT IGNORE INTO message_templates (kind, content, is_active) VALUES (?, ?, TRUE)",
			tpl.kind, tpl.content,
		)
		if err != nil {
			return fmt.Errorf("failed to seed template %s: %w", tpl.kind, err)
		}
	}

	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM drip_campaigns"); err != nil {
		return err
	}
	if count > 0 {
		logger.Infof("Database already has %d campaigns, skipping campaign seed", count)
		return nil
	}

	result, err := db.Exec(
		"INSERT INTO drip_campaigns (name, description, trigger_event, is_active) VALUES (?, ?, ?, TRUE)",
		"Boas-vindas", "Sequencia inicial de contato para novos leads", "lead_created",
	)
	if err != nil {
		return fmt.Errorf("failed to seed default campaign: %w", err)
	}

	campaignID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	steps := []struct {
		order        int
		delayMinutes int
		template     string
	}{
		{1, 5, "Ola {{primeiro_nome}}! Recebemos seu contato, em breve enviaremos o catalogo de brinquedos."},
		{2, 60, "{{primeiro_nome}}, ja conseguiu dar uma olhada no catalogo? Qualquer duvida estou por aqui."},
	}

	for _, step := range steps {
		_, err := db.Exec(
			"INSERT INTO drip_steps (campaign_id, step_order, delay_minutes, message_template, is_active) VALUES (?, ?, ?, ?, TRUE)",
			campaignID, step.order, step.delayMinutes, step.template,
		)
		if err != nil {
			return fmt.Errorf("failed to seed campaign step: %w", err)
		}
	}

	logger.Infof("Seeded %d templates and the default campaign", len(templates))
	return nil
}
