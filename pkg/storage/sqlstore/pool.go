package sqlstore

import (
	"fmt"
	"time"
)

func (p *Client) configurePool(maxOpen, maxIdle int, maxLifetime time.Duration) error {
	db, err := p.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	if maxLifetime > 0 {
		db.SetConnMaxLifetime(maxLifetime)
	}
	return nil
}
