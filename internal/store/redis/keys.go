package redis

const (
	// KeyConfig is the hash holding the singleton record. Each service
	// flag is one hash field, plus updated_at.
	KeyConfig = "switchboard:config"
)
