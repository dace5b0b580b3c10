// Package mqtt publishes traffic-light lamp states to an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Retained lamp-state publishing, one topic per lamp
//   - Last Will and Testament (LWT) for offline detection
//
// # Topics
//
//	<prefix>/status             online/offline, retained, also the LWT
//	<prefix>/lights/<lamp>      {"light":"RED","on":true,"timestamp":"..."}, retained
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	sink := mqtt.NewSink(client, mqtt.Topics{Prefix: cfg.MQTT.TopicPrefix}, byte(cfg.MQTT.QoS))
package mqtt
