package mailer

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
)

// SimulatedMailer is substituted for the real SMTP transport when no
// credentials are configured. It logs each send and reports success so the
// rest of the pipeline behaves normally. Being a distinct type, a simulated
// send is always distinguishable from a real one.
type SimulatedMailer struct {
	logger *zap.Logger
	sends  atomic.Int64
}

func NewSimulatedMailer(logger *zap.Logger) *SimulatedMailer {
	return &SimulatedMailer{logger: logger}
}

func (m *SimulatedMailer) Send(_ context.Context, to, subject, _ string) error {
	m.sends.Add(1)
	m.logger.Warn("smtp credentials not configured, simulating email send",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}

// Sends returns how many messages were simulated.
func (m *SimulatedMailer) Sends() int64 {
	return m.sends.Load()
}

var _ Mailer = (*SimulatedMailer)(nil)
