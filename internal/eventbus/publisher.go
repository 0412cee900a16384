/*
Copyright (C) 2026 Castmetrics

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package eventbus streams persisted assignment decisions to NATS so the
// reporting layer can consume them without polling the table. Publishing
// is best-effort: the table remains the source of truth, and a publish
// failure never fails the spot.
package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/castmetrics/langblock/internal/models"
)

const (
	subjectPrefix = "langblock.assignments"

	connectTimeout = 5 * time.Second
)

// DecisionEvent is the wire form of one persisted decision.
type DecisionEvent struct {
	SpotID              string                  `json:"spot_id"`
	MarketID            string                  `json:"market_id"`
	ScheduleID          *string                 `json:"schedule_id"`
	BlockID             *string                 `json:"block_id"`
	CampaignType        models.CampaignType     `json:"campaign_type"`
	AssignmentMethod    models.AssignmentMethod `json:"assignment_method"`
	SpansMultipleBlocks bool                    `json:"spans_multiple_blocks"`
	BlocksSpanned       []string                `json:"blocks_spanned,omitempty"`
	RequiresAttention   bool                    `json:"requires_attention"`
	RunID               string                  `json:"run_id"`
	PublishedAt         time.Time               `json:"published_at"`
}

// Publisher sends decision events to NATS.
type Publisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// Connect dials NATS. The caller owns Close.
func Connect(url string, logger zerolog.Logger) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Timeout(connectTimeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	return &Publisher{
		conn:   conn,
		logger: logger.With().Str("component", "eventbus").Logger(),
	}, nil
}

// Publish sends one decision event on the market-scoped subject.
func (p *Publisher) Publish(marketID string, event DecisionEvent) error {
	event.PublishedAt = time.Now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal decision event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", subjectPrefix, marketID)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish decision event: %w", err)
	}
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn().Err(err).Msg("nats drain failed")
		p.conn.Close()
	}
}
