// internal/services/order_number.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/javajoker/marketplace-backend/internal/repository"
)

const orderSequence = "order_number"

// OrderNumberGenerator builds order numbers as <prefix><unix millis><seq>,
// with seq zero padded to at least four digits.
type OrderNumberGenerator struct {
	sequencer repository.Sequencer
	prefix    string
	now       func() time.Time
}

func NewOrderNumberGenerator(sequencer repository.Sequencer, prefix string) *OrderNumberGenerator {
	return &OrderNumberGenerator{sequencer: sequencer, prefix: prefix, now: time.Now}
}

func (g *OrderNumberGenerator) Next(ctx context.Context) (string, error) {
	seq, err := g.sequencer.Next(ctx, orderSequence)
	if err != nil {
		return "", fmt.Errorf("failed to generate order number: %w", err)
	}
	return fmt.Sprintf("%s%d%04d", g.prefix, g.now().UnixMilli(), seq), nil
}
