package collector

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/derktes/rf-signal-collector/pulsecode"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// codeMessage is the payload published for every locally decoded code.
type codeMessage struct {
	CollectorID string         `json:"collectorId"`
	Bits        string         `json:"bits,omitempty"`
	BitLength   int            `json:"bitLength,omitempty"`
	Code        pulsecode.Code `json:"code"`
	Summary     string         `json:"summary"`
	Timestamp   time.Time      `json:"timestamp"`
}

// mqttPublisher publishes decoded codes to {prefix}/{collectorId}/code.
type mqttPublisher struct {
	client mqtt.Client
	config MQTTConfig
}

func generateClientID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return "rf_collector_" + hex.EncodeToString(b)
}

func newMQTTPublisher(config MQTTConfig) (*mqttPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(generateClientID())
	if config.Username != "" {
		opts.SetUsername(config.Username)
	}
	if config.Password != "" {
		opts.SetPassword(config.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Println("MQTT: Connected to broker")
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("MQTT: Connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	log.Printf("MQTT: Connected to broker %s", config.Broker)
	return &mqttPublisher{client: client, config: config}, nil
}

func buildCodeMessage(prefix, collectorID string, code pulsecode.Code, now time.Time) (string, []byte, error) {
	msg := codeMessage{
		CollectorID: collectorID,
		Code:        code,
		Summary:     code.String(),
		Timestamp:   now.UTC(),
	}
	if bits, err := code.Bits(); err == nil && bits.Length > 0 {
		msg.Bits = bits.String()
		msg.BitLength = bits.Length
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return fmt.Sprintf("%s/%s/code", prefix, collectorID), data, nil
}

func (mp *mqttPublisher) publishCode(collectorID string, code pulsecode.Code) error {
	if !mp.client.IsConnected() {
		return fmt.Errorf("MQTT not connected")
	}
	topic, data, err := buildCodeMessage(mp.config.TopicPrefix, collectorID, code, time.Now())
	if err != nil {
		return err
	}
	token := mp.client.Publish(topic, mp.config.QoS, mp.config.Retain, data)
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Printf("MQTT ERROR: Failed to publish to %s: %v", topic, token.Error())
		}
	}()
	return nil
}

func (mp *mqttPublisher) disconnect() {
	if mp.client.IsConnected() {
		mp.client.Disconnect(250)
		log.Println("MQTT: Disconnected from broker")
	}
}
