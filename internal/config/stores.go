package config

import (
	"net"
	"strconv"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
)

// DSNValue returns database.dsn when set, otherwise a DSN assembled from the
// discrete database fields.
func (c DatabaseRuntimeConfig) DSNValue() string {
	if c.DSN != "" {
		return c.DSN
	}

	dc := mysqlDriver.NewConfig()
	dc.User = c.User
	dc.Passwd = c.Password
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	dc.DBName = c.Name
	dc.ParseTime = c.ParseTime
	dc.Loc = c.location()
	dc.Params = map[string]string{"charset": c.Charset}
	for k, v := range c.Params {
		dc.Params[k] = v
	}
	return dc.FormatDSN()
}

func (c DatabaseRuntimeConfig) location() *time.Location {
	loc, err := time.LoadLocation(c.Loc)
	if err != nil {
		return time.Local
	}
	return loc
}

// RedisAddr is host:port of the redis server when no url is configured.
func (c RedisRuntimeConfig) RedisAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
