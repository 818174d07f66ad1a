package config

import "time"

type Config struct {
	Web struct {
		Address         string        `conf:"default:0.0.0.0:8000"`
		ReadTimeout     time.Duration `conf:"default:5s"`
		WriteTimeout    time.Duration `conf:"default:10s"`
		IdleTimeout     time.Duration `conf:"default:120s"`
		ShutdownTimeout time.Duration `conf:"default:20s"`
	}
	Cors struct {
		Origin string
	}
	Store   Store
	DB      DB
	Redis   Redis
	Session struct {
		Lifetime time.Duration `conf:"default:24h"`
	}
	Rate struct {
		Burst    int           `conf:"default:20"`
		Interval time.Duration `conf:"default:100ms"`
		Expiry   time.Duration `conf:"default:10m"`
	}
	Stripe Stripe
	Paypal struct {
		ClientID string
		Secret   string `conf:"mask"`
		URL      string `conf:"default:https://api-m.sandbox.paypal.com"`
	}
}

type Store struct {
	// Backend is one of memory, sqlite, postgres or redis.
	Backend    string `conf:"default:sqlite"`
	SQLitePath string `conf:"default:./data/carts.db"`
	CartKey    string `conf:"default:carts"`
}

type DB struct {
	User         string `conf:"default:postgres"`
	Password     string `conf:"default:postgres,mask"`
	Host         string `conf:"default:localhost:5432"`
	Name         string `conf:"default:postgres"`
	MaxIdleConns int    `conf:"default:0"`
	MaxOpenConns int    `conf:"default:0"`
	DisableTLS   bool   `conf:"default:true"`
}

type Redis struct {
	Address  string `conf:"default:localhost:6379"`
	Password string `conf:"mask"`
	DB       int    `conf:"default:0"`
	Prefix   string `conf:"default:petmarket:"`
}

type Stripe struct {
	APISecret     string `conf:"mask"`
	WebhookSecret string `conf:"mask"`
	SuccessURL    string `conf:"default:http://localhost:3000/checkout/success"`
	CancelURL     string `conf:"default:http://localhost:3000/checkout/cancel"`
}
