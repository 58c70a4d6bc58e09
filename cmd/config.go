package cmd

type Config struct {
	HTTPPort    string
	Environment string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	JWTSecret string

	// AdminIDs seeds the user directory with administrators, who receive
	// payment notifications.
	AdminIDs []string

	RabbitMQURL           string
	NotificationExchange  string
	NotificationQueue     string
	NotificationWorkers   int
	NotificationQueueSize int

	CapabilityPolicyFile string
	StatusReportSchedule string
	OTLPEndpoint         string
}

// UsesDatabase reports whether PostgreSQL is configured. Without it the
// service keeps orders in memory.
func (c Config) UsesDatabase() bool {
	return c.DBHost != ""
}
