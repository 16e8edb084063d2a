// Package mapper translates raw SmartThings capability payloads into
// typed metric samples.
//
// The translation is table-driven: each supported capability attribute
// has a Rule naming the metric, the expected value shape (number,
// boolean-like, or enumerated string), and any unit handling. Values that
// do not match their rule are skipped and counted as anomalies; unknown
// capabilities are skipped silently so new upstream device types degrade
// gracefully instead of failing the poll cycle.
//
// Every sample carries three labels: device_id, device_name, and
// component. Single-component devices report under component "main"
// (DefaultComponent), so a metric's label schema is identical across
// single- and multi-component devices.
package mapper
