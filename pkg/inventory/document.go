package inventory

const (
	// DatabaseName is the platform's database on the external server
	DatabaseName = "awx"

	// BrokerVHost is the message broker virtual host used by the platform
	BrokerVHost = "tower"

	// BrokerPort is the message broker listener port
	BrokerPort = 5672

	// BrokerCookie is the Erlang cookie for the non-clustered broker
	BrokerCookie = "cookiemonster"

	// platformGroup and databaseGroup are the installer's host groups
	platformGroup = "tower"
	databaseGroup = "database"
)

// Document is the installer inventory in Ansible's YAML inventory format
type Document struct {
	All Group `yaml:"all"`
}

// Group is an inventory host group
type Group struct {
	Hosts    map[string]HostVars `yaml:"hosts,omitempty"`
	Vars     *Vars               `yaml:"vars,omitempty"`
	Children map[string]Group    `yaml:"children,omitempty"`
}

// HostVars are per-host inventory variables
type HostVars map[string]string

// Vars are the installer variables applied to every host
type Vars struct {
	AdminPassword string `yaml:"admin_password"`

	PGHost     string `yaml:"pg_host"`
	PGPort     int    `yaml:"pg_port"`
	PGDatabase string `yaml:"pg_database"`
	PGUsername string `yaml:"pg_username"`
	PGPassword string `yaml:"pg_password"`

	RabbitMQPort          int    `yaml:"rabbitmq_port"`
	RabbitMQVHost         string `yaml:"rabbitmq_vhost"`
	RabbitMQUsername      string `yaml:"rabbitmq_username"`
	RabbitMQPassword      string `yaml:"rabbitmq_password"`
	RabbitMQCookie        string `yaml:"rabbitmq_cookie"`
	RabbitMQUseLongName   bool   `yaml:"rabbitmq_use_long_name"`
	RabbitMQEnableManager bool   `yaml:"rabbitmq_enable_manager"`
}
