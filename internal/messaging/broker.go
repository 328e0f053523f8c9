package messaging

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrNoExchangeName is returned when a record has nothing to name its
// exchange after.
var ErrNoExchangeName = errors.New("messaging: exchange name is empty")

// BrokerConfig carries the connection and exchange settings passed to
// whoever declares exchanges.
type BrokerConfig struct {
	URL          string
	ExchangeType string
	Durable      bool
}

func (c BrokerConfig) kind() string {
	if c.ExchangeType == "" {
		return amqp.ExchangeFanout
	}
	return c.ExchangeType
}

// ExchangeDeclarer is the subset of *amqp.Channel used here.
type ExchangeDeclarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
}

var _ ExchangeDeclarer = (*amqp.Channel)(nil)

// Exchanger is a record owning an exchange.
type Exchanger interface {
	ExchangeName() string
}

// CreateExchange declares the exchange named by rec.
func CreateExchange(ctx context.Context, ch ExchangeDeclarer, cfg BrokerConfig, rec Exchanger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name := rec.ExchangeName()
	if name == "" {
		return ErrNoExchangeName
	}
	if err := ch.ExchangeDeclare(
		name,        // name
		cfg.kind(),  // type
		cfg.Durable, // durable
		false,       // auto-deleted
		false,       // internal
		false,       // no-wait
		nil,         // arguments
	); err != nil {
		return fmt.Errorf("declare exchange %s: %w", name, err)
	}
	return nil
}

// CreateExchange declares the channel's exchange.
func (c Channel) CreateExchange(ctx context.Context, ch ExchangeDeclarer, cfg BrokerConfig) error {
	return CreateExchange(ctx, ch, cfg, c)
}

// CreateExchange declares the subscriber's private exchange.
func (s Subscription) CreateExchange(ctx context.Context, ch ExchangeDeclarer, cfg BrokerConfig) error {
	return CreateExchange(ctx, ch, cfg, s)
}

// Session is an open broker channel.
type Session interface {
	ExchangeDeclarer
	Close() error
}

// Dialer opens a Session for url.
type Dialer func(ctx context.Context, url string) (Session, error)

// DialAMQP connects with amqp091 and opens one channel.
func DialAMQP(_ context.Context, url string) (Session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return &amqpSession{Channel: ch, conn: conn}, nil
}

type amqpSession struct {
	*amqp.Channel
	conn *amqp.Connection
}

func (s *amqpSession) Close() error {
	chErr := s.Channel.Close()
	connErr := s.conn.Close()
	return errors.Join(chErr, connErr)
}

// ProvisionerOption configures a Provisioner.
type ProvisionerOption func(*Provisioner)

// WithDialer replaces the AMQP dialer.
func WithDialer(dial Dialer) ProvisionerOption {
	return func(p *Provisioner) {
		if dial != nil {
			p.dial = dial
		}
	}
}

// WithLogger sets the provisioning logger.
func WithLogger(logger *zap.Logger) ProvisionerOption {
	return func(p *Provisioner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Provisioner declares exchanges for channels and subscriptions.
type Provisioner struct {
	cfg    BrokerConfig
	dial   Dialer
	logger *zap.Logger
}

// NewProvisioner builds a provisioner for cfg.
func NewProvisioner(cfg BrokerConfig, options ...ProvisionerOption) (*Provisioner, error) {
	if cfg.URL == "" {
		return nil, errors.New("messaging: broker url is required")
	}
	p := &Provisioner{cfg: cfg, dial: DialAMQP, logger: zap.NewNop()}
	for _, opt := range options {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

// Provision declares one exchange per distinct name over a single session
// and returns the declared names in order.
func (p *Provisioner) Provision(ctx context.Context, records ...Exchanger) ([]string, error) {
	session, err := p.dial(ctx, p.cfg.URL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			p.logger.Warn("broker session close failed", zap.Error(cerr))
		}
	}()

	seen := make(map[string]struct{}, len(records))
	declared := make([]string, 0, len(records))
	for _, rec := range records {
		name := rec.ExchangeName()
		if _, dup := seen[name]; dup {
			continue
		}
		if err := CreateExchange(ctx, session, p.cfg, rec); err != nil {
			return declared, err
		}
		seen[name] = struct{}{}
		declared = append(declared, name)
		p.logger.Info("exchange declared",
			zap.String("exchange", name),
			zap.String("kind", p.cfg.kind()),
		)
	}
	return declared, nil
}
