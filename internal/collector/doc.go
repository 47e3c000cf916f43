// Package collector drives periodic retrieval of files from the device
// fleet.
//
// The collector owns the polling schedule; protocol work is delegated to
// a Scanner implementation. A cycle processes devices sequentially and
// independently: for each device it records reachability, lists offered
// files, filters against the archive, downloads only what is new, and
// ingests the result. COMTRADE file sets become disturbance recordings;
// everything retrieved enters the per-device file ledger that future
// cycles filter against.
//
// Cycles run on a configurable interval and on demand via PollNow, which
// the MQTT command subscription calls when an operator requests an
// immediate sweep.
package collector
