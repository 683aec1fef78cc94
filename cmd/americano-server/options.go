package main

import (
	"fmt"
	"net"
	"strconv"

	"github.com/vgurov/americano/internal/adminauth"
	"github.com/vgurov/americano/internal/database"
	"github.com/vgurov/americano/internal/util/idgen"
)

type HTTPSOptions struct {
	Port                 uint16   `toml:"port"`
	CachePath            string   `toml:"cache-path"`
	AllowedSecureDomains []string `toml:"allowed-secure-domains"`
	ExposeInsecure       bool     `toml:"expose-insecure"`
}

type Options struct {
	Host        string                `toml:"host"`
	Port        uint16                `toml:"port"`
	APIPrefix   string                `toml:"api-prefix"`
	PublicRate  float64               `toml:"public-rate"`
	PublicBurst int                   `toml:"public-burst"`
	HTTPS       *HTTPSOptions         `toml:"https"`
	DB          database.Options      `toml:"db"`
	TokenHash   *adminauth.HashOptions `toml:"token-hash"`

	adminTokenDigest string
}

func (o *Options) AddrWithPort() string {
	return net.JoinHostPort(o.Host, strconv.FormatUint(uint64(o.Port), 10))
}

func (o *Options) SecureAddrWithPort() string {
	if o.HTTPS == nil {
		panic("must not happen")
	}
	return net.JoinHostPort(o.Host, strconv.FormatUint(uint64(o.HTTPS.Port), 10))
}

func (o *Options) FillDefaults() {
	if o.Host == "" {
		o.Host = "127.0.0.1"
	}
	if o.Port == 0 {
		o.Port = 8080
	}
	if o.APIPrefix == "" {
		o.APIPrefix = "/api"
	}
	if o.HTTPS != nil && o.HTTPS.Port == 0 {
		o.HTTPS.Port = 8443
	}
	o.DB.FillDefaults()
}

type Secrets struct {
	AdminToken string `toml:"admin-token"`
}

// GenerateMissing fills absent secrets in place and reports whether anything
// changed, so the caller can write the file back.
func (s *Secrets) GenerateMissing() (bool, error) {
	changed := false
	if s.AdminToken == "" {
		token, err := idgen.SecureToken()
		if err != nil {
			return false, fmt.Errorf("generate admin token: %w", err)
		}
		s.AdminToken = token
		changed = true
	}
	return changed, nil
}

// MixSecrets folds secrets into the options. Only the argon2 digest of the
// admin token is kept in memory past this point.
func (o *Options) MixSecrets(s *Secrets) error {
	if s.AdminToken == "" {
		return fmt.Errorf("no admin token")
	}
	digest, err := adminauth.HashToken(s.AdminToken, o.TokenHash)
	if err != nil {
		return fmt.Errorf("hash admin token: %w", err)
	}
	o.adminTokenDigest = digest
	return nil
}
