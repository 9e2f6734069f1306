package config

import (
	"fmt"
	"strings"
)

type EnvVars struct {
	s Settings
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.s.Port
	if port == "" {
		port = "8080"
	}
	if port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.s.AppName
}

func (e EnvVars) GetEnv() string {
	return e.s.Env
}

func (e EnvVars) IsProduction() bool {
	return e.s.Env == EnvProduction
}

func (e EnvVars) GetFrontendURL() string {
	return strings.TrimRight(e.s.FrontendURL, "/")
}

type Mail struct {
	s Settings
}

var _ MailConfig = Mail{}

func (m Mail) GetSmtpHost() string     { return m.s.SmtpHost }
func (m Mail) GetSmtpPort() string     { return m.s.SmtpPort }
func (m Mail) GetSmtpAccount() string  { return m.s.SmtpAccount }
func (m Mail) GetSmtpPassword() string { return m.s.SmtpPassword }
func (m Mail) GetEmailFrom() string    { return m.s.EmailFrom }

type Storage struct {
	s Settings
}

var _ StorageConfig = Storage{}

func (st Storage) GetStorageDriver() string { return st.s.StorageDriver }
func (st Storage) GetSqlitePath() string    { return st.s.SqlitePath }
func (st Storage) GetMongoURI() string      { return st.s.MongoURI }
func (st Storage) GetMongoDatabase() string { return st.s.MongoDatabase }

type Federated struct {
	s Settings
}

var _ FederatedConfig = Federated{}

func (f Federated) GetGoogleClientID() string     { return f.s.GoogleClientID }
func (f Federated) GetGoogleClientSecret() string { return f.s.GoogleClientSecret }
func (f Federated) GetGoogleRedirectURL() string  { return f.s.GoogleRedirectURL }
func (f Federated) GetGoogleIssuer() string       { return f.s.GoogleIssuer }

// FederatedEnabled reports whether Google sign-in has been configured.
func (f Federated) FederatedEnabled() bool {
	return f.s.GoogleClientID != "" && f.s.GoogleClientSecret != ""
}
