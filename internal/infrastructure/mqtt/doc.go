// Package mqtt provides MQTT client connectivity for Ordos Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Fleet event publishing (connectivity, ingest announcements)
//
// # Architecture
//
// Ordos uses MQTT as its outward event bus: the collector publishes
// device reachability and ingest events that SCADA gateways and
// dashboards subscribe to, and accepts operator commands (an immediate
// poll request) on ordos/core/command/poll.
//
//	Ordos Core → MQTT Broker → Gateways / Dashboards
//	Operator tooling → MQTT Broker → Ordos Core (commands)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Publish fleet events through the typed publisher
//	events := mqtt.NewEventPublisher(client)
//	events.ConnectionChanged("relay-bay1", true)
//
//	// Accept poll commands
//	err = client.Subscribe(mqtt.Topics{}.CommandPoll(), 1,
//	    func(topic string, payload []byte) error {
//	        collector.PollNow()
//	        return nil
//	    })
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
package mqtt
