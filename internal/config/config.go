package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

type Config struct {
	Port                   string
	MetricsPort            string
	ConsulAddress          string
	ServiceName            string
	ServiceID              string
	ServiceAddress         string
	RabbitMQUser           string
	RabbitMQPassword       string
	RabbitMQHost           string
	RabbitMQPort           string
	JWTSecret              string
	JWTExpired             int64
	OrgName                string
	FromEmailAddress       string
	UserDetailsLink        string
	SecurityCodeExpireDays int
	InviteReminderCron     string
}

func init() {
	ServiceConfig = New()
}

var ServiceConfig *Config

func New() *Config {
	jwt_expired_str := getEnv("TOKEN_EXPIRY_TIME", "24")
	jwt_expired, _ := strconv.Atoi(jwt_expired_str)

	code_expire_str := getEnv("SECURITY_CODE_EXPIRE_DAYS", "30")
	code_expire, _ := strconv.Atoi(code_expire_str)

	return &Config{
		Port:                   getEnv("PORT", "9200"),
		MetricsPort:            getEnv("METRICS_PORT", "9201"),
		RabbitMQUser:           getEnv("RABBITMQ_USER", ""),
		RabbitMQPassword:       getEnv("RABBITMQ_PASSWORD", ""),
		RabbitMQHost:           getEnv("RABBITMQ_HOST", "rabbitmq"),
		RabbitMQPort:           getEnv("RABBITMQ_PORT", "5672"),
		ConsulAddress:          "consul-server:" + getEnv("CONSUL_PORT", "8500"),
		ServiceName:            getEnv("STUDY_ADMIN_SERVICE_NAME", "study-admin-service"),
		ServiceID:              getEnv("STUDY_ADMIN_SERVICE_NAME", "study-admin-service") + "-" + getEnv("STUDY_ADMIN_HOSTNAME", "1"),
		ServiceAddress:         getEnv("STUDY_ADMIN_SERVICE_ADDRESS", "study-admin-service"),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		JWTExpired:             int64(jwt_expired),
		OrgName:                getEnv("ORG_NAME", "Study Platform"),
		FromEmailAddress:       getEnv("FROM_EMAIL_ADDRESS", ""),
		UserDetailsLink:        getEnv("USER_DETAILS_LINK", ""),
		SecurityCodeExpireDays: code_expire,
		InviteReminderCron:     getEnv("INVITE_REMINDER_CRON", "@every 5m"),
	}
}

// RabbitURI is empty when no credentials are configured, which disables
// event publishing and consumption.
func (c *Config) RabbitURI() string {
	if c.RabbitMQUser == "" {
		return ""
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.RabbitMQUser, c.RabbitMQPassword, c.RabbitMQHost, c.RabbitMQPort)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Error Retriving ENV: %s not exist", key)
	return fallback
}
