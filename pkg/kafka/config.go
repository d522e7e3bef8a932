package kafka

import (
	"crypto/tls"
	"fmt"

	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

// Supported SASL mechanisms.
const (
	MechanismPlain       = "PLAIN"
	MechanismSCRAMSHA256 = "SCRAM-SHA-256"
	MechanismSCRAMSHA512 = "SCRAM-SHA-512"
)

// Config holds Kafka connection parameters shared by producers and consumers.
type Config struct {
	Brokers       []string
	ConsumerGroup string

	// TLS enables TLS for broker connections.
	TLS bool

	SASLEnabled   bool
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
}

// security resolves the TLS configuration and SASL mechanism for cfg. Both are
// nil when the corresponding feature is disabled.
func (cfg Config) security() (*tls.Config, sasl.Mechanism, error) {
	var tlsCfg *tls.Config
	if cfg.TLS {
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	if !cfg.SASLEnabled {
		return tlsCfg, nil, nil
	}

	switch cfg.SASLMechanism {
	case MechanismPlain, "":
		return tlsCfg, plain.Mechanism{Username: cfg.SASLUsername, Password: cfg.SASLPassword}, nil
	case MechanismSCRAMSHA256, MechanismSCRAMSHA512:
		algo := scram.SHA512
		if cfg.SASLMechanism == MechanismSCRAMSHA256 {
			algo = scram.SHA256
		}
		m, err := scram.Mechanism(algo, cfg.SASLUsername, cfg.SASLPassword)
		if err != nil {
			return nil, nil, fmt.Errorf("configure %s: %w", cfg.SASLMechanism, err)
		}
		return tlsCfg, m, nil
	default:
		return nil, nil, fmt.Errorf("unsupported SASL mechanism %q", cfg.SASLMechanism)
	}
}
