// Package config предоставляет структуры и функцию для парсинга и загрузки конфига.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек портального клиента.
type Config struct {
	Env      string `yaml:"env" env:"ENV" env-default:"local"`
	API      `yaml:"api"`
	Razorpay `yaml:"razorpay"`
	Session  `yaml:"session"`
	Relay    `yaml:"form_relay"`
}

// API структура для настройки подключения к REST-бэкенду.
type API struct {
	BaseURL string        `yaml:"base_url" env:"API_BASE_URL" env-default:"https://api.cyberfraudprotection.com"`
	Timeout time.Duration `yaml:"timeout" env-default:"15s"`
}

// Razorpay структура для настройки платежного шлюза.
// KeyID — публичный ключ, передаваемый в виджет. Секретный ключ клиенту
// не нужен: проверка подписи выполняется исключительно бэкендом.
type Razorpay struct {
	KeyID           string `yaml:"key_id" env:"RAZORPAY_KEY_ID"`
	CallbackAddress string `yaml:"callback_address" env-default:"127.0.0.1:8421"`
}

// Session структура с путями к файлам клиентской и администраторской сессий.
type Session struct {
	CustomerFile string `yaml:"customer_file" env-default:"cfa_session.json"`
	AdminFile    string `yaml:"admin_file" env-default:"cfa_admin_session.json"`
}

// Relay структура для настройки сервиса приема контактных форм.
type Relay struct {
	Address       string        `yaml:"address" env-default:"0.0.0.0:8084"`
	Timeout       time.Duration `yaml:"timeout" env-default:"5s"`
	IdleTimeout   time.Duration `yaml:"idle_timeout" env-default:"60s"`
	SMTPHost      string        `yaml:"smtp_host"`
	SMTPPort      string        `yaml:"smtp_port" env-default:"587"`
	SMTPUser      string        `yaml:"smtp_user"`
	SMTPPassword  string        `yaml:"smtp_password" env:"SMTP_PASSWORD"`
	NotifyAddress string        `yaml:"notify_address"`
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"API:\n"+
			"  BaseURL: %s\n"+
			"  Timeout: %s\n"+
			"Razorpay:\n"+
			"  KeyID: %s\n"+
			"  CallbackAddress: %s\n"+
			"Session:\n"+
			"  CustomerFile: %s\n"+
			"  AdminFile: %s\n"+
			"Relay:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"  NotifyAddress: %s\n",
		c.Env,
		c.BaseURL,
		c.API.Timeout,
		c.KeyID,
		c.CallbackAddress,
		c.CustomerFile,
		c.AdminFile,
		c.Address,
		c.Relay.Timeout,
		c.IdleTimeout,
		c.NotifyAddress,
	)
}
