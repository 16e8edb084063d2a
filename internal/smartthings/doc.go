// Package smartthings provides a client for the SmartThings cloud API.
//
// This package manages:
//   - Bearer-token authentication on every request
//   - Transparent pagination of the device listing
//   - Bounded retry with exponential backoff for 429/5xx responses
//   - Fast failure on credential rejection (401/403)
//   - Per-request timeouts so a hung upstream cannot stall a poll cycle
//
// # Error Taxonomy
//
// Callers distinguish failure modes with errors.Is():
//
//   - ErrAuth: credentials rejected; not retried, fatal for this token
//   - ErrUpstream: transient failure that exhausted the retry budget
//   - ErrNotFound: device removed upstream; treat as absence
//
// # Usage
//
//	client, err := smartthings.New(cfg.SmartThings)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	devices, err := client.ListDevices(ctx)
//	for _, d := range devices {
//	    status, err := client.DeviceStatus(ctx, d.DeviceID)
//	    ...
//	}
package smartthings
