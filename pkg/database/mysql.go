package database

import (
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/environments"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/logger"
)

func NewMySQLDB(cfg environments.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&collation=utf8mb4_unicode_ci",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName,
	)

	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Infof("Connected to MySQL database")
	return db, nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS leads (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		whatsapp VARCHAR(20) NOT NULL,
		source VARCHAR(100) NOT NULL DEFAULT 'manual',
		notes TEXT,
		status VARCHAR(20) NOT NULL DEFAULT 'new',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_leads_status (status),
		INDEX idx_leads_whatsapp (whatsapp)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS message_templates (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		kind VARCHAR(50) NOT NULL UNIQUE,
		content TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS scheduled_messages (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		lead_id BIGINT NOT NULL,
		kind VARCHAR(50) NOT NULL,
		custom_body TEXT,
		due_at DATETIME NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		attempts INT NOT NULL DEFAULT 0,
		last_error TEXT,
		sent_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_scheduled_status_due (status, due_at),
		INDEX idx_scheduled_lead (lead_id),
		CONSTRAINT fk_scheduled_lead FOREIGN KEY (lead_id) REFERENCES leads(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS drip_campaigns (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		description TEXT,
		trigger_event VARCHAR(50) NOT NULL DEFAULT 'lead_created',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS drip_steps (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		campaign_id BIGINT NOT NULL,
		step_order INT NOT NULL,
		delay_minutes INT NOT NULL DEFAULT 0,
		message_template TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		INDEX idx_steps_campaign (campaign_id, step_order),
		CONSTRAINT fk_steps_campaign FOREIGN KEY (campaign_id) REFERENCES drip_campaigns(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS drip_queue (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		lead_id BIGINT NOT NULL,
		step_id BIGINT NOT NULL,
		campaign_id BIGINT NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		scheduled_at DATETIME NOT NULL,
		attempts INT NOT NULL DEFAULT 0,
		max_attempts INT NOT NULL DEFAULT 3,
		sent_at DATETIME,
		message_id VARCHAR(100),
		error_message TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_queue_status_scheduled (status, scheduled_at),
		INDEX idx_queue_lead (lead_id),
		INDEX idx_queue_campaign (campaign_id),
		CONSTRAINT fk_queue_lead FOREIGN KEY (lead_id) REFERENCES leads(id) ON DELETE CASCADE,
		CONSTRAINT fk_queue_step FOREIGN KEY (step_id) REFERENCES drip_steps(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS message_log (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		lead_id BIGINT,
		whatsapp VARCHAR(20) NOT NULL,
		direction VARCHAR(10) NOT NULL,
		content TEXT NOT NULL,
		metadata JSON,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_log_lead (lead_id),
		INDEX idx_log_direction_created (direction, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
}

func RunMigrations(db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	logger.Infof("Database migrations completed")
	return nil
}
