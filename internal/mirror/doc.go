// Package mirror publishes device state to an MQTT broker alongside the
// Prometheus scrape endpoint.
//
// The mirror is optional and publish-only: each poll cycle's fresh
// samples are published as retained JSON per device, so home automation
// consumers subscribing late still see the current state. Broker
// availability never affects polling or scraping; publish failures are
// reported to the caller and otherwise ignored.
//
// The client wraps paho.mqtt.golang with connection management, a Last
// Will and Testament for offline detection, and automatic reconnection
// with exponential backoff.
package mirror
