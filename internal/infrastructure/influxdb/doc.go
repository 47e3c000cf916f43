// Package influxdb provides time-series telemetry for Ordos Core.
//
// Connectivity transitions, ingest counts, and poll-cycle statistics are
// written to InfluxDB v2 for fleet availability dashboards. Writes are
// non-blocking and batched; a slow or absent InfluxDB never delays
// collection, and async write failures are reported through an error
// callback rather than to callers.
//
// The integration is optional. When disabled in configuration, Connect
// returns ErrDisabled and the rest of the system runs without telemetry.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without telemetry
//	}
//	defer client.Close()
//
//	client.SetOnError(func(err error) {
//	    log.Warn("influxdb write failed", "error", err)
//	})
//
//	client.WriteConnectivity("relay-bay1", true)
//	client.WriteIngestCount("relay-bay1", "recordings", 3)
package influxdb
