package client

import "net/http"

type config struct {
	Schema    string
	Host      string
	AccessKey string
	SecretKey string
	Client    *http.Client
}

type Option func(*config)

func WithSchema(s string) Option {
	return func(c *config) {
		c.Schema = s
	}
}

func WithHost(h string) Option {
	return func(c *config) {
		c.Host = h
	}
}

func WithAuth(ak string, sk string) Option {
	return func(c *config) {
		c.AccessKey = ak
		c.SecretKey = sk
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		c.Client = hc
	}
}
