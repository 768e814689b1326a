package publisher

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatepass/internal/platform/config"
	"gatepass/internal/scanlog"
	id "gatepass/pkg/domain"
)

func TestNewKafkaWithoutBrokers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p, err := NewKafka(config.KafkaConfig{}, logger)
	require.NoError(t, err)
	assert.Nil(t, p, "no brokers means no publisher")
}

func TestOfferNeverBlocks(t *testing.T) {
	p := &Kafka{
		topic:  "gatepass.scans",
		inbox:  make(chan scanlog.Entry, 2),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	entry := scanlog.Entry{ID: id.EntryID(uuid.New())}
	for i := 0; i < 10; i++ {
		p.Offer(entry)
	}

	assert.Len(t, p.inbox, 2, "overflow is dropped, not queued")
}
