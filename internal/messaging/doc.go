// Package messaging holds the broker-facing records edited through forms:
// channels, subscriptions and the choice tables describing messages. It
// declares AMQP exchanges for them using an explicit BrokerConfig; no
// connection parameters are kept in package state.
package messaging
