package mqtt

import "errors"

// Sentinel errors for broker operations, matched with errors.Is.
// Timeout and broker failures wrap the relevant sentinel with detail.
var (
	// ErrNotConnected: the operation needs a live broker session.
	ErrNotConnected = errors.New("mqtt: not connected to broker")

	// ErrConnectionFailed: the initial connection attempt did not succeed.
	ErrConnectionFailed = errors.New("mqtt: broker connection failed")

	// ErrPublishFailed: the broker did not accept a published message.
	ErrPublishFailed = errors.New("mqtt: message publish failed")

	// ErrSubscribeFailed: the broker did not accept a subscription.
	ErrSubscribeFailed = errors.New("mqtt: topic subscribe failed")

	// ErrUnsubscribeFailed: the broker did not release a subscription.
	ErrUnsubscribeFailed = errors.New("mqtt: topic unsubscribe failed")

	// ErrInvalidQoS: the QoS level is outside 0..2.
	ErrInvalidQoS = errors.New("mqtt: QoS must be 0, 1, or 2")

	// ErrInvalidTopic: the topic string is empty.
	ErrInvalidTopic = errors.New("mqtt: empty topic")
)
