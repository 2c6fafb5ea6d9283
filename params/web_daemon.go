package params

import "time"

type WebDaemonConfig struct {
	ListenerConfig `mapstructure:",squash"`

	// LastEventTTL is how long the last classified event is served from /last.
	LastEventTTL time.Duration `mapstructure:"last_event_ttl" json:"last_event_ttl"`
}

func DefaultWebListenerConfig() ListenerConfig {
	return ListenerConfig{
		Network: "tcp",
		Address: "localhost:3000",
	}
}

func DefaultWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		ListenerConfig: DefaultWebListenerConfig(),
		LastEventTTL:   10 * time.Minute,
	}
}

func DefaultTestWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		ListenerConfig: ListenerConfig{
			Network: "tcp",
			Address: "localhost:3333",
		},
		LastEventTTL: time.Minute,
	}
}
